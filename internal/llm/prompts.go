package llm

import _ "embed"

// IntakePromptVersion tags extraction logs so prompt changes are traceable.
const IntakePromptVersion = "intake_v1"

//go:embed prompts/intake_v1.txt
var intakePromptV1 string

// IntakeInstruction returns the fixed extraction instruction for the intake form.
func IntakeInstruction() string {
	return intakePromptV1
}
