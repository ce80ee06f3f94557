package grader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPromptDrillSelectsHarshTone(t *testing.T) {
	tones := DefaultTones()
	prompt := BuildPrompt("What is a pointer?", "A memory address.", ModeDrill, tones)

	require.Contains(t, prompt, "Respond harshly and sarcastically, but still provide the correct answer.")
	require.NotContains(t, prompt, tones.Mentor)
	require.Contains(t, prompt, "Question: What is a pointer?")
	require.Contains(t, prompt, "Student's Answer: A memory address.")
}

func TestBuildPromptMentorSelectsEncouragingTone(t *testing.T) {
	tones := DefaultTones()
	prompt := BuildPrompt("q", "a", ModeMentor, tones)

	require.Contains(t, prompt, "Respond kindly and encouragingly, offering constructive feedback.")
	require.NotContains(t, prompt, tones.Drill)
}

func TestBuildPromptUnknownModeFallsBackToMentor(t *testing.T) {
	tones := DefaultTones()
	for _, mode := range []string{"anything-else", "", "DRILL", "Drill "} {
		prompt := BuildPrompt("q", "a", mode, tones)
		require.Contains(t, prompt, tones.Mentor, "mode %q", mode)
		require.NotContains(t, prompt, tones.Drill, "mode %q", mode)
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	tones := DefaultTones()
	first := BuildPrompt("q", "a", ModeDrill, tones)
	second := BuildPrompt("q", "a", ModeDrill, tones)
	require.Equal(t, first, second)
}

func TestBuildPromptLayout(t *testing.T) {
	tones := DefaultTones()
	prompt := BuildPrompt("Q", "A", ModeMentor, tones)
	require.Equal(t, "You are an AI coding instructor.\n\nQuestion: Q\nStudent's Answer: A\n\n"+tones.Mentor, prompt)
}
