package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
)

// LessonBrowser is the module/lesson browser: modules, their lessons and the progress of their blocks.
type LessonBrowser struct {
	view
	svc *academy.Service

	filter  academy.LessonFilter
	modules []academy.Module
	lessons []academy.Lesson
	blocks  map[string][]academy.Block // by lesson id
}

func NewLessonBrowser(svc *academy.Service, ctrl *optimistic.Controller, logger core.Logger) *LessonBrowser {
	lb := &LessonBrowser{svc: svc, blocks: map[string][]academy.Block{}}
	lb.init(ctrl, logger)
	return lb
}

func (lb *LessonBrowser) Load(ctx context.Context, filter academy.LessonFilter) error {
	var (
		modules []academy.Module
		lessons []academy.Lesson
		blocks  []academy.Block
	)
	fetch := func(ctx context.Context) error {
		var err error
		if modules, err = lb.svc.ListModules(ctx); err != nil {
			return errors.Wrap(err, "listing modules")
		}
		if lessons, err = lb.svc.ListLessons(ctx, filter); err != nil {
			return errors.Wrap(err, "listing lessons")
		}
		ids := make([]string, 0, len(lessons))
		for _, l := range lessons {
			ids = append(ids, l.ID)
		}
		blocks, err = lb.svc.ListBlocks(ctx, ids...)
		return errors.Wrap(err, "listing blocks")
	}
	return lb.load(ctx, fetch, func() {
		lb.filter = filter
		lb.modules = modules
		lb.lessons = lessons
		lb.blocks = make(map[string][]academy.Block, len(lessons))
		for _, b := range blocks {
			lb.blocks[b.LessonID] = append(lb.blocks[b.LessonID], b)
		}
	})
}

func (lb *LessonBrowser) reload(ctx context.Context) error {
	lb.mu.RLock()
	filter := lb.filter
	lb.mu.RUnlock()
	return lb.Load(ctx, filter)
}

// Derived views

func (lb *LessonBrowser) Modules() []academy.Module {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	mods := append([]academy.Module(nil), lb.modules...)
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].Order < mods[j].Order })
	return mods
}

// Lessons returns the lessons of a module ordered by order.
func (lb *LessonBrowser) Lessons(moduleID string) []academy.Lesson {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	lessons := make([]academy.Lesson, 0)
	for _, l := range lb.lessons {
		if l.ModuleID == moduleID {
			lessons = append(lessons, l)
		}
	}
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Order < lessons[j].Order })
	return lessons
}

func (lb *LessonBrowser) Lesson(id string) (academy.Lesson, bool) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	if i := lb.lessonIndex(id); i >= 0 {
		return lb.lessons[i], true
	}
	return academy.Lesson{}, false
}

// Blocks returns the cached blocks of a lesson ordered by block number.
func (lb *LessonBrowser) Blocks(lessonID string) []academy.Block {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	blocks := append([]academy.Block(nil), lb.blocks[lessonID]...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].BlockNumber < blocks[j].BlockNumber })
	return blocks
}

func (lb *LessonBrowser) LessonProgress(lessonID string) int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return academy.ModuleProgress(lb.blocks[lessonID])
}

// ModuleProgress averages the progress of every block of the module's lessons.
func (lb *LessonBrowser) ModuleProgress(moduleID string) int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	var blocks []academy.Block
	for _, l := range lb.lessons {
		if l.ModuleID == moduleID {
			blocks = append(blocks, lb.blocks[l.ID]...)
		}
	}
	return academy.ModuleProgress(blocks)
}

func (lb *LessonBrowser) lessonIndex(id string) int {
	return indexOf(len(lb.lessons), func(i int) bool { return lb.lessons[i].ID == id })
}

// Actions

// CreateLesson shows the lesson with its three default blocks at once, and swaps in the stored rows on success.
func (lb *LessonBrowser) CreateLesson(ctx context.Context, nl academy.NewLesson) optimistic.Outcome {
	if err := nl.Validate(); err != nil {
		return lb.reject("lesson", err)
	}

	now := time.Now().UTC()
	tmpID := newPlaceholderID()
	placeholder := academy.Lesson{ID: tmpID, ModuleID: nl.ModuleID, Title: nl.Title, Order: nl.Order, Status: nl.Status, CreatedAt: now, UpdatedAt: now}
	tmpBlocks := make([]academy.Block, 0, academy.BlocksPerLesson)
	for num := 1; num <= academy.BlocksPerLesson; num++ {
		tmpBlocks = append(tmpBlocks, academy.WithProgress(academy.Block{
			ID:          newPlaceholderID(),
			LessonID:    tmpID,
			BlockNumber: num,
			Title:       academy.DefaultBlockTitle(num),
		}, nil))
	}

	var created academy.LessonTree
	return lb.perform(ctx, optimistic.Mutation{
		Entity: "lesson",
		Key:    "lesson:" + tmpID,
		Apply: func() {
			lb.lessons = append(lb.lessons, placeholder)
			lb.blocks[tmpID] = tmpBlocks
		},
		Remote: func(ctx context.Context) (err error) {
			created, err = lb.svc.CreateLesson(ctx, nl)
			return err
		},
		Commit: func() {
			if i := lb.lessonIndex(tmpID); i >= 0 {
				lb.lessons[i] = created.Lesson
			} else {
				lb.lessons = append(lb.lessons, created.Lesson)
			}
			delete(lb.blocks, tmpID)
			lb.blocks[created.Lesson.ID] = created.Blocks
		},
		Revert: func() {
			if i := lb.lessonIndex(tmpID); i >= 0 {
				lb.lessons = append(lb.lessons[:i], lb.lessons[i+1:]...)
			}
			delete(lb.blocks, tmpID)
		},
		Success: "Lección creada",
	}, lb.reload)
}

func (lb *LessonBrowser) UpdateLesson(ctx context.Context, id string, ul academy.UpdateLesson) optimistic.Outcome {
	if err := ul.Validate(); err != nil {
		return lb.reject("lesson", err)
	}

	var prev, stored academy.Lesson
	return lb.perform(ctx, optimistic.Mutation{
		Entity: "lesson",
		Key:    "lesson:" + id,
		Apply: func() {
			if i := lb.lessonIndex(id); i >= 0 {
				prev = lb.lessons[i]
				lb.lessons[i] = ul.Apply(prev)
			}
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = lb.svc.UpdateLesson(ctx, id, ul)
			return err
		},
		Commit: func() {
			if i := lb.lessonIndex(id); i >= 0 {
				lb.lessons[i] = stored
			}
		},
		Revert: func() {
			if i := lb.lessonIndex(id); i >= 0 && prev.ID != "" {
				lb.lessons[i] = prev
			}
		},
		Success: "Lección actualizada",
	}, lb.reload)
}

// DeleteLesson removes the lesson and its blocks from the cache together, and puts both back when the
// cascade (downloadables, blocks, lesson) fails.
func (lb *LessonBrowser) DeleteLesson(ctx context.Context, id string) optimistic.Outcome {
	var (
		prevIndex  = -1
		prev       academy.Lesson
		prevBlocks []academy.Block
		hadBlocks  bool
	)
	return lb.perform(ctx, optimistic.Mutation{
		Entity: "lesson",
		Key:    "lesson:" + id,
		Apply: func() {
			if i := lb.lessonIndex(id); i >= 0 {
				prevIndex, prev = i, lb.lessons[i]
				lb.lessons = append(lb.lessons[:i], lb.lessons[i+1:]...)
			}
			prevBlocks, hadBlocks = lb.blocks[id]
			delete(lb.blocks, id)
		},
		Remote: func(ctx context.Context) error {
			return lb.svc.DeleteLesson(ctx, id)
		},
		Revert: func() {
			if prevIndex >= 0 {
				idx := prevIndex
				if idx > len(lb.lessons) {
					idx = len(lb.lessons)
				}
				lb.lessons = append(lb.lessons[:idx], append([]academy.Lesson{prev}, lb.lessons[idx:]...)...)
			}
			if hadBlocks {
				lb.blocks[id] = prevBlocks
			}
		},
		Success: "Lección eliminada",
	}, lb.reload)
}

func (lb *LessonBrowser) UpdateModule(ctx context.Context, id string, um academy.UpdateModule) optimistic.Outcome {
	if err := um.Validate(); err != nil {
		return lb.reject("module", err)
	}

	moduleIndex := func() int {
		return indexOf(len(lb.modules), func(i int) bool { return lb.modules[i].ID == id })
	}
	var prev, stored academy.Module
	return lb.perform(ctx, optimistic.Mutation{
		Entity: "module",
		Key:    "module:" + id,
		Apply: func() {
			if i := moduleIndex(); i >= 0 {
				prev = lb.modules[i]
				lb.modules[i] = um.Apply(prev)
			}
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = lb.svc.UpdateModule(ctx, id, um)
			return err
		},
		Commit: func() {
			if i := moduleIndex(); i >= 0 {
				lb.modules[i] = stored
			}
		},
		Revert: func() {
			if i := moduleIndex(); i >= 0 && prev.ID != "" {
				lb.modules[i] = prev
			}
		},
		Success: "Módulo actualizado",
	}, lb.reload)
}
