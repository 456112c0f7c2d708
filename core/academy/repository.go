package academy

import "context"

// LessonFilter narrows ListLessons. Zero value lists every lesson.
type LessonFilter struct {
	ModuleID string       `query:"module_id"`
	Status   LessonStatus `query:"status"`
}

// Repository is the persistence gateway for the academy entities.
// Failures are *core.StoreError. Lists are ordered: modules and lessons by order,
// blocks by block_number, downloadables by order.
type Repository interface {
	// Atomic runs fn on a repository bound to one unit of work. The writes fn makes are kept
	// only when it returns nil.
	Atomic(ctx context.Context, fn func(repo Repository) error) error

	ListModules(ctx context.Context) ([]Module, error)
	GetModule(ctx context.Context, id string) (Module, error)
	CreateModule(ctx context.Context, m Module) (Module, error)
	UpdateModule(ctx context.Context, m Module) (Module, error)

	ListLessons(ctx context.Context, filter LessonFilter) ([]Lesson, error)
	GetLesson(ctx context.Context, id string) (Lesson, error)
	CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
	UpdateLesson(ctx context.Context, l Lesson) (Lesson, error)
	DeleteLesson(ctx context.Context, id string) error

	// ListBlocks returns the blocks of the given lessons.
	ListBlocks(ctx context.Context, lessonIDs ...string) ([]Block, error)
	GetBlock(ctx context.Context, id string) (Block, error)
	CreateBlock(ctx context.Context, b Block) (Block, error)
	UpdateBlock(ctx context.Context, b Block) (Block, error)
	DeleteBlock(ctx context.Context, id string) error

	// ListDownloadables returns the downloadables of the given blocks.
	ListDownloadables(ctx context.Context, blockIDs ...string) ([]Downloadable, error)
	GetDownloadable(ctx context.Context, id string) (Downloadable, error)
	// CreateDownloadable assigns the next order within the block.
	CreateDownloadable(ctx context.Context, d Downloadable) (Downloadable, error)
	UpdateDownloadable(ctx context.Context, d Downloadable) (Downloadable, error)
	DeleteDownloadable(ctx context.Context, id string) error
}
