package academy

// Score weights.
const (
	contentWeight      = 40 // key_points AND full_content
	promptWeight       = 10 // genspark_prompt
	dlPromptWeight     = 15 // share of downloadables with a prompt
	dlUploadedWeight   = 15 // share of uploaded downloadables
	videoWeight        = 10
	presentationWeight = 10
	maxScore           = 100
)

// ComputeProgress scores a block's production completeness (0-100) and maps the score to a status.
// The block title is not an input. dls are the block's downloadables.
func ComputeProgress(b Block, dls []Downloadable) (int, ProductionStatus) {
	var score int
	if b.KeyPoints != "" && b.FullContent != "" {
		score += contentWeight
	}
	if b.GensparkPrompt != "" {
		score += promptWeight
	}
	if total := len(dls); total > 0 {
		var withPrompt, uploaded int
		for _, dl := range dls {
			if dl.PromptGeneration != "" {
				withPrompt++
			}
			if dl.FileURL != "" {
				uploaded++
			}
		}
		score += dlPromptWeight * withPrompt / total
		score += dlUploadedWeight * uploaded / total
	}
	if b.VideoURL != "" {
		score += videoWeight
	}
	if b.PPTURL != "" {
		score += presentationWeight
	}
	if score > maxScore {
		score = maxScore
	}
	return score, StatusForScore(score)
}

// StatusForScore maps a score to its production band: 0 is not_started, 1-39 content_created,
// 40-74 prompts_ready, 75-89 recording, 90-99 editing and 100 completed.
func StatusForScore(score int) ProductionStatus {
	switch {
	case score <= 0:
		return NotStarted
	case score <= 39:
		return ContentCreated
	case score <= 74:
		return PromptsReady
	case score <= 89:
		return Recording
	case score <= 99:
		return Editing
	default:
		return Completed
	}
}

// WithProgress returns b with its derived fields recomputed from its content and downloadables.
func WithProgress(b Block, dls []Downloadable) Block {
	b.ProgressPercentage, b.ProductionStatus = ComputeProgress(b, dls)
	return b
}

// ModuleProgress averages the progress of the given blocks, rounded down. 0 without blocks.
func ModuleProgress(blocks []Block) int {
	if len(blocks) == 0 {
		return 0
	}
	var sum int
	for _, b := range blocks {
		sum += b.ProgressPercentage
	}
	return sum / len(blocks)
}
