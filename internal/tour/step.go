// Package tour runs the scripted product demo: a fixed chain of narrated
// steps that uploads the sample dataset, fills in the campaign goal, kicks
// off generation and walks the review screen, with "Betty" voiceovers
// synthesized per step.
package tour

import "errors"

// Step is one stop on the demo tour.
type Step string

const (
	StepIdle             Step = "IDLE"
	StepIntro            Step = "INTRO"
	StepExplainUpload    Step = "EXPLAIN_UPLOAD"
	StepAutoUpload       Step = "AUTO_UPLOAD"
	StepExplainPrompt    Step = "EXPLAIN_PROMPT"
	StepAutoPrompt       Step = "AUTO_PROMPT"
	StepExplainTone      Step = "EXPLAIN_TONE"
	StepStartGen         Step = "START_GEN"
	StepLoadingExplain   Step = "LOADING_EXPLAIN"
	StepDashboardExplain Step = "DASHBOARD_EXPLAIN"
	StepModalExplain     Step = "MODAL_EXPLAIN"
	StepFinish           Step = "FINISH"
)

var (
	ErrTourActive    = errors.New("a tour is already running")
	ErrTourNotActive = errors.New("no tour is running")
)

// DemoPrompt is the campaign goal the tour types in on the user's behalf.
const DemoPrompt = "generate a personalized credit card offer for each customer"

// nextStep is the fixed transition table. Every chain ends at IDLE.
var nextStep = map[Step]Step{
	StepIntro:            StepExplainUpload,
	StepExplainUpload:    StepAutoUpload,
	StepAutoUpload:       StepExplainPrompt,
	StepExplainPrompt:    StepAutoPrompt,
	StepAutoPrompt:       StepExplainTone,
	StepExplainTone:      StepStartGen,
	StepStartGen:         StepLoadingExplain,
	StepLoadingExplain:   StepDashboardExplain,
	StepDashboardExplain: StepModalExplain,
	StepModalExplain:     StepFinish,
	StepFinish:           StepIdle,
}

// scripts holds Betty's narration line per step.
var scripts = map[Step]string{
	StepIntro:            "Hi! I'm Betty! I'll show you how to build powerful marketing campaigns fast. Let's go!",
	StepExplainUpload:    "First, let's get our audience ready. I'm loading our sample-customers csv data for you right now.",
	StepAutoUpload:       "Perfect! Our customer details are loaded and ready for personalization. We support up to ten rows instantly.",
	StepExplainPrompt:    "Next, we tell the AI what to do. I'll type in our campaign goal: generate a personalized credit card offer for each customer.",
	StepAutoPrompt:       "Goal set! Now we select a tone. Let's go with Professional for that expert feel.",
	StepExplainTone:      "Everything looks great. Notice how I've set the tone to professional to match our brand.",
	StepStartGen:         "Now, watch the magic happen as I click Start Campaign!",
	StepLoadingExplain:   "The AI is working hard! It's analyzing each customer's data and ensuring every message meets strict BFSI compliance standards.",
	StepDashboardExplain: "We're done! Look at these high compliance scores. I'll open one so you can see the result.",
	StepModalExplain:     "See that? A perfectly tailored message. And look, you can even edit the content right here if you need to make tweaks!",
	StepFinish:           "And that's it! Fast, compliant, and personal. I'm Betty, and I've just automated your marketing workflow. I'm ready when you are!",
}

// Script returns the narration line for a step.
func Script(step Step) string { return scripts[step] }

// Next returns the step that follows, or IDLE for unknown steps.
func Next(step Step) Step {
	if next, ok := nextStep[step]; ok {
		return next
	}
	return StepIdle
}
