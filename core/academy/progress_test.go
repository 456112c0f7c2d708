package academy

import (
	"testing"
)

func TestComputeProgress(t *testing.T) {
	content := Block{KeyPoints: "rodillas fuera", FullContent: "guion"}
	full := content
	full.GensparkPrompt = "prompt"
	full.VideoURL = "https://cdn.test/v.mp4"
	full.PPTURL = "https://cdn.test/p.pdf"

	prompted := Downloadable{PromptGeneration: "genera"}
	uploaded := Downloadable{FileURL: "https://cdn.test/d.pdf"}
	both := Downloadable{PromptGeneration: "genera", FileURL: "https://cdn.test/d.pdf"}

	tests := []struct {
		name       string
		block      Block
		dls        []Downloadable
		wantScore  int
		wantStatus ProductionStatus
	}{
		{name: "empty", wantScore: 0, wantStatus: NotStarted},
		{name: "title only", block: Block{Title: "Bloque 1"}, wantScore: 0, wantStatus: NotStarted},
		{name: "key points without full content", block: Block{KeyPoints: "k"}, wantScore: 0, wantStatus: NotStarted},
		{name: "video only", block: Block{VideoURL: "https://cdn.test/v.mp4"}, wantScore: 10, wantStatus: ContentCreated},
		{name: "content", block: content, wantScore: 40, wantStatus: PromptsReady},
		{name: "content and prompt", block: Block{KeyPoints: "k", FullContent: "c", GensparkPrompt: "p"}, wantScore: 50, wantStatus: PromptsReady},
		{name: "no downloadables", block: full, wantScore: 70, wantStatus: PromptsReady},
		{name: "half prompts, half uploads", block: content, dls: []Downloadable{prompted, uploaded}, wantScore: 54, wantStatus: PromptsReady},
		{name: "prompts ready", block: full, dls: []Downloadable{prompted}, wantScore: 85, wantStatus: Recording},
		{name: "one of two uploaded", block: full, dls: []Downloadable{both, prompted}, wantScore: 92, wantStatus: Editing},
		{name: "one of three uploaded", block: full, dls: []Downloadable{both, prompted, prompted}, wantScore: 90, wantStatus: Editing},
		{name: "complete", block: full, dls: []Downloadable{both, both}, wantScore: 100, wantStatus: Completed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, status := ComputeProgress(tt.block, tt.dls)
			if score != tt.wantScore || status != tt.wantStatus {
				t.Errorf("ComputeProgress() = %d, %s; want %d, %s", score, status, tt.wantScore, tt.wantStatus)
			}
		})
	}
}

func TestComputeProgress_idempotent(t *testing.T) {
	b := Block{KeyPoints: "k", FullContent: "c", VideoURL: "https://cdn.test/v.mp4"}
	dls := []Downloadable{{PromptGeneration: "p"}}

	once := WithProgress(b, dls)
	twice := WithProgress(once, dls)
	if once != twice {
		t.Errorf("WithProgress() not idempotent: %+v != %+v", once, twice)
	}

	// derived fields are never inputs
	stale := once
	stale.ProgressPercentage, stale.ProductionStatus = 3, Completed
	if got := WithProgress(stale, dls); got != once {
		t.Errorf("WithProgress() = %+v; want %+v", got, once)
	}
}

func TestStatusForScore(t *testing.T) {
	tests := []struct {
		score int
		want  ProductionStatus
	}{
		{-1, NotStarted},
		{0, NotStarted},
		{1, ContentCreated},
		{39, ContentCreated},
		{40, PromptsReady},
		{74, PromptsReady},
		{75, Recording},
		{89, Recording},
		{90, Editing},
		{99, Editing},
		{100, Completed},
	}
	for _, tt := range tests {
		if got := StatusForScore(tt.score); got != tt.want {
			t.Errorf("StatusForScore(%d) = %s; want %s", tt.score, got, tt.want)
		}
	}
}

func TestModuleProgress(t *testing.T) {
	if got := ModuleProgress(nil); got != 0 {
		t.Errorf("ModuleProgress(nil) = %d; want 0", got)
	}
	blocks := []Block{{ProgressPercentage: 40}, {ProgressPercentage: 0}, {ProgressPercentage: 0}}
	if got := ModuleProgress(blocks); got != 13 {
		t.Errorf("ModuleProgress() = %d; want 13", got)
	}
}
