// Package grader turns a student's question/answer pair into a graded reply
// by way of an admission-controlled completion call.
package grader

import "fmt"

// Grading modes. Unrecognized modes deliberately fall through to the mentor
// tone rather than being rejected.
const (
	ModeMentor = "mentor"
	ModeDrill  = "drill"
)

const promptTemplate = "You are an AI coding instructor.\n\nQuestion: %s\nStudent's Answer: %s\n\n%s"

// Tones maps a grading mode to its tone instruction.
type Tones struct {
	Mentor string `yaml:"mentor"`
	Drill  string `yaml:"drill"`
}

// DefaultTones returns the built-in tone instructions.
func DefaultTones() Tones {
	return Tones{
		Mentor: "Respond kindly and encouragingly, offering constructive feedback.",
		Drill:  "Respond harshly and sarcastically, but still provide the correct answer.",
	}
}

// Instruction selects the tone instruction for mode. Only "drill" selects the
// drill tone; every other value, "mentor" included, selects the mentor tone.
func (t Tones) Instruction(mode string) string {
	if mode == ModeDrill {
		return t.Drill
	}
	return t.Mentor
}

// BuildPrompt assembles the system prompt for a submission. Pure and
// deterministic; no I/O.
func BuildPrompt(question, answer, mode string, tones Tones) string {
	return fmt.Sprintf(promptTemplate, question, answer, tones.Instruction(mode))
}
