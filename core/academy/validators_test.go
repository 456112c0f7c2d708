package academy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
)

func TestCheckBlock(t *testing.T) {
	valid := academy.Block{ID: "b1", BlockNumber: 2, ProgressPercentage: 40, ProductionStatus: academy.PromptsReady}
	tests := []struct {
		name    string
		mutate  func(b *academy.Block)
		wantErr bool
	}{
		{name: "valid", mutate: func(*academy.Block) {}},
		{name: "block number 0", mutate: func(b *academy.Block) { b.BlockNumber = 0 }, wantErr: true},
		{name: "block number 4", mutate: func(b *academy.Block) { b.BlockNumber = 4 }, wantErr: true},
		{name: "unknown status", mutate: func(b *academy.Block) { b.ProductionStatus = "filming" }, wantErr: true},
		{name: "progress above 100", mutate: func(b *academy.Block) { b.ProgressPercentage = 120 }, wantErr: true},
		{name: "status behind progress", mutate: func(b *academy.Block) { b.ProductionStatus = academy.ContentCreated }, wantErr: true},
		{
			name: "not started at 0",
			mutate: func(b *academy.Block) {
				b.ProgressPercentage, b.ProductionStatus = 0, academy.NotStarted
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := academy.CheckBlock(b)
			assert.Equal(t, tt.wantErr, err != nil, err)
		})
	}
}

func TestCheckDownloadable(t *testing.T) {
	valid := academy.Downloadable{ID: "d1", Name: "Guía", Type: academy.TypePDF, Status: academy.DownloadablePending}
	assert.NoError(t, academy.CheckDownloadable(valid))

	bad := valid
	bad.Type = "mp3"
	assert.Error(t, academy.CheckDownloadable(bad))

	bad = valid
	bad.Status = academy.DownloadableUploaded
	assert.Error(t, academy.CheckDownloadable(bad), "uploaded without file url")
}

func TestCheckLessonAndModule(t *testing.T) {
	assert.NoError(t, academy.CheckLesson(academy.Lesson{ID: "l1", ModuleID: "m1", Status: academy.LessonScripted}))
	assert.Error(t, academy.CheckLesson(academy.Lesson{ID: "l1", ModuleID: "m1", Status: "draft"}))
	assert.Error(t, academy.CheckLesson(academy.Lesson{ID: "l1", Status: academy.LessonPlanned}))
	assert.NoError(t, academy.CheckModule(academy.Module{ID: "m1", Status: academy.ModuleCompleted}))
	assert.Error(t, academy.CheckModule(academy.Module{ID: "m1"}))
}
