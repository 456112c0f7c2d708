package academy

import (
	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

var (
	moduleStatusTag     = "module_status"
	lessonStatusTag     = "lesson_status"
	downloadableTypeTag = "downloadable_type"
)

func init() {
	core.RegisterEnum(moduleStatusTag, ModuleStatuses...)
	core.RegisterEnum(lessonStatusTag, LessonStatuses...)
	core.RegisterEnum(downloadableTypeTag, DownloadableTypes...)
}

func oneOf(val string, allowed []string) bool {
	for _, a := range allowed {
		if val == a {
			return true
		}
	}
	return false
}

// Shape checks applied by repositories to rows read from the store.

func CheckModule(m Module) error {
	if !oneOf(string(m.Status), ModuleStatuses) {
		return errors.Errorf("module %s: invalid status %q", m.ID, m.Status)
	}
	return nil
}

func CheckLesson(l Lesson) error {
	if l.ModuleID == "" {
		return errors.Errorf("lesson %s: missing module_id", l.ID)
	}
	if !oneOf(string(l.Status), LessonStatuses) {
		return errors.Errorf("lesson %s: invalid status %q", l.ID, l.Status)
	}
	return nil
}

func CheckBlock(b Block) error {
	if b.BlockNumber < 1 || b.BlockNumber > BlocksPerLesson {
		return errors.Errorf("block %s: block_number %d out of range", b.ID, b.BlockNumber)
	}
	if !oneOf(string(b.ProductionStatus), ProductionStatuses) {
		return errors.Errorf("block %s: invalid production_status %q", b.ID, b.ProductionStatus)
	}
	if b.ProgressPercentage < 0 || b.ProgressPercentage > maxScore {
		return errors.Errorf("block %s: progress_percentage %d out of range", b.ID, b.ProgressPercentage)
	}
	if want := StatusForScore(b.ProgressPercentage); b.ProductionStatus != want {
		return errors.Errorf("block %s: production_status %q does not match progress %d (%q)",
			b.ID, b.ProductionStatus, b.ProgressPercentage, want)
	}
	return nil
}

func CheckDownloadable(d Downloadable) error {
	if d.Name == "" {
		return errors.Errorf("downloadable %s: missing name", d.ID)
	}
	if !oneOf(string(d.Type), DownloadableTypes) {
		return errors.Errorf("downloadable %s: invalid type %q", d.ID, d.Type)
	}
	if (d.Status == DownloadableUploaded) != (d.FileURL != "") {
		return errors.Errorf("downloadable %s: status %q does not match file_url", d.ID, d.Status)
	}
	return nil
}
