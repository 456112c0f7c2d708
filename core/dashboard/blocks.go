package dashboard

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
)

// BlockEditor edits the three blocks of one lesson, their downloadables and the tasks linked to them.
// Every mutation of a block or of its downloadables is serialized on the block key,
// since they all move the block progress.
type BlockEditor struct {
	view
	svc   *academy.Service
	tasks *task.Service

	lessonID      string
	lesson        academy.Lesson
	blocks        []academy.Block
	downloadables map[string][]academy.Downloadable // by block id
	linked        []task.Task
}

func NewBlockEditor(svc *academy.Service, tasks *task.Service, ctrl *optimistic.Controller, logger core.Logger) *BlockEditor {
	be := &BlockEditor{svc: svc, tasks: tasks, downloadables: map[string][]academy.Downloadable{}}
	be.init(ctrl, logger)
	return be
}

func (be *BlockEditor) Load(ctx context.Context, lessonID string) error {
	var (
		tree   academy.LessonTree
		linked []task.Task
	)
	fetch := func(ctx context.Context) error {
		var err error
		if tree, err = be.svc.GetLessonTree(ctx, lessonID); err != nil {
			return err
		}
		if be.tasks != nil {
			linked, err = be.tasks.List(ctx, task.Filter{LessonID: lessonID})
			return errors.Wrap(err, "listing linked tasks")
		}
		return nil
	}
	return be.load(ctx, fetch, func() {
		be.lessonID = lessonID
		be.lesson = tree.Lesson
		be.blocks = tree.Blocks
		be.downloadables = tree.Downloadables
		be.linked = linked
	})
}

func (be *BlockEditor) reload(ctx context.Context) error {
	be.mu.RLock()
	id := be.lessonID
	be.mu.RUnlock()
	return be.Load(ctx, id)
}

// Derived views

func (be *BlockEditor) Lesson() academy.Lesson {
	be.mu.RLock()
	defer be.mu.RUnlock()
	return be.lesson
}

// Blocks returns the blocks ordered by block number.
func (be *BlockEditor) Blocks() []academy.Block {
	be.mu.RLock()
	defer be.mu.RUnlock()
	blocks := append([]academy.Block(nil), be.blocks...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].BlockNumber < blocks[j].BlockNumber })
	return blocks
}

func (be *BlockEditor) Block(id string) (academy.Block, bool) {
	be.mu.RLock()
	defer be.mu.RUnlock()
	if i := be.blockIndex(id); i >= 0 {
		return be.blocks[i], true
	}
	return academy.Block{}, false
}

// Downloadables returns the downloadables of a block ordered by order.
func (be *BlockEditor) Downloadables(blockID string) []academy.Downloadable {
	be.mu.RLock()
	defer be.mu.RUnlock()
	dls := append([]academy.Downloadable(nil), be.downloadables[blockID]...)
	sort.SliceStable(dls, func(i, j int) bool { return dls[i].Order < dls[j].Order })
	return dls
}

// LinkedTasks returns the tasks linked to a block, or to the whole lesson when blockID is empty.
func (be *BlockEditor) LinkedTasks(blockID string) []task.Task {
	be.mu.RLock()
	defer be.mu.RUnlock()
	tasks := make([]task.Task, 0)
	for _, t := range be.linked {
		if blockID == "" || t.BlockID == blockID {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

func (be *BlockEditor) blockIndex(id string) int {
	return indexOf(len(be.blocks), func(i int) bool { return be.blocks[i].ID == id })
}

func (be *BlockEditor) downloadableIndex(blockID, id string) int {
	dls := be.downloadables[blockID]
	return indexOf(len(dls), func(i int) bool { return dls[i].ID == id })
}

// findDownloadable returns the block id owning the downloadable, or "".
func (be *BlockEditor) findDownloadable(id string) (string, academy.Downloadable) {
	for blockID, dls := range be.downloadables {
		for _, dl := range dls {
			if dl.ID == id {
				return blockID, dl
			}
		}
	}
	return "", academy.Downloadable{}
}

// recompute refreshes the local progress of a block from the cached downloadables.
func (be *BlockEditor) recompute(blockID string) {
	if i := be.blockIndex(blockID); i >= 0 {
		be.blocks[i] = academy.WithProgress(be.blocks[i], be.downloadables[blockID])
	}
}

func (be *BlockEditor) setBlock(b academy.Block) {
	if i := be.blockIndex(b.ID); i >= 0 {
		be.blocks[i] = b
	}
}

func blockKey(id string) string { return "block:" + id }

// Actions

// SaveBlock saves the whole editable content of a block. The progress shown locally is recomputed
// at once; the stored one is computed again by the service.
func (be *BlockEditor) SaveBlock(ctx context.Context, blockID string, bc academy.BlockContent) optimistic.Outcome {
	if err := bc.Validate(); err != nil {
		return be.reject("block", err)
	}

	var prev, stored academy.Block
	return be.perform(ctx, optimistic.Mutation{
		Entity: "block",
		Key:    blockKey(blockID),
		Apply: func() {
			if i := be.blockIndex(blockID); i >= 0 {
				prev = be.blocks[i]
				be.blocks[i] = academy.WithProgress(bc.Apply(prev), be.downloadables[blockID])
			}
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = be.svc.SaveBlock(ctx, blockID, bc)
			return err
		},
		Commit: func() { be.setBlock(stored) },
		Revert: func() {
			if prev.ID != "" {
				be.setBlock(prev)
			}
		},
		Success: "Bloque guardado",
	}, be.reload)
}

func (be *BlockEditor) AddDownloadable(ctx context.Context, nd academy.NewDownloadable) optimistic.Outcome {
	if err := nd.Validate(); err != nil {
		return be.reject("downloadable", err)
	}

	tmp := academy.Downloadable{
		ID:               newPlaceholderID(),
		BlockID:          nd.BlockID,
		Name:             nd.Name,
		Type:             nd.Type,
		PromptGeneration: nd.PromptGeneration,
		FileURL:          nd.FileURL,
		CreatedAt:        time.Now().UTC(),
	}
	tmp.SyncStatus()

	var (
		prevBlock academy.Block
		stored    academy.Downloadable
		refreshed academy.Block
	)
	return be.perform(ctx, optimistic.Mutation{
		Entity: "downloadable",
		Key:    blockKey(nd.BlockID),
		Apply: func() {
			dls := be.downloadables[nd.BlockID]
			tmp.Order = len(dls) + 1
			if n := len(dls); n > 0 && dls[n-1].Order >= tmp.Order {
				tmp.Order = dls[n-1].Order + 1
			}
			if i := be.blockIndex(nd.BlockID); i >= 0 {
				prevBlock = be.blocks[i]
			}
			be.downloadables[nd.BlockID] = append(dls, tmp)
			be.recompute(nd.BlockID)
		},
		Remote: func(ctx context.Context) (err error) {
			stored, refreshed, err = be.svc.AddDownloadable(ctx, nd)
			return err
		},
		Commit: func() {
			if i := be.downloadableIndex(nd.BlockID, tmp.ID); i >= 0 {
				be.downloadables[nd.BlockID][i] = stored
			}
			be.setBlock(refreshed)
		},
		Revert: func() {
			if i := be.downloadableIndex(nd.BlockID, tmp.ID); i >= 0 {
				dls := be.downloadables[nd.BlockID]
				be.downloadables[nd.BlockID] = append(dls[:i], dls[i+1:]...)
			}
			if prevBlock.ID != "" {
				be.setBlock(prevBlock)
			}
		},
		Success: "Descargable añadido",
	}, be.reload)
}

func (be *BlockEditor) UpdateDownloadable(ctx context.Context, id string, ud academy.UpdateDownloadable) optimistic.Outcome {
	if err := ud.Validate(); err != nil {
		return be.reject("downloadable", err)
	}

	be.mu.RLock()
	blockID, _ := be.findDownloadable(id)
	be.mu.RUnlock()
	if blockID == "" {
		return be.reject("downloadable", core.NewStoreError(core.StoreNotFound, "update downloadable "+id, nil))
	}

	var (
		prev      academy.Downloadable
		prevBlock academy.Block
		stored    academy.Downloadable
		refreshed academy.Block
	)
	return be.perform(ctx, optimistic.Mutation{
		Entity: "downloadable",
		Key:    blockKey(blockID),
		Apply: func() {
			i := be.downloadableIndex(blockID, id)
			if i < 0 {
				return
			}
			if j := be.blockIndex(blockID); j >= 0 {
				prevBlock = be.blocks[j]
			}
			prev = be.downloadables[blockID][i]
			be.downloadables[blockID][i] = ud.Apply(prev)
			be.recompute(blockID)
		},
		Remote: func(ctx context.Context) (err error) {
			stored, refreshed, err = be.svc.UpdateDownloadable(ctx, id, ud)
			return err
		},
		Commit: func() {
			if i := be.downloadableIndex(blockID, id); i >= 0 {
				be.downloadables[blockID][i] = stored
			}
			be.setBlock(refreshed)
		},
		Revert: func() {
			if i := be.downloadableIndex(blockID, id); i >= 0 && prev.ID != "" {
				be.downloadables[blockID][i] = prev
			}
			if prevBlock.ID != "" {
				be.setBlock(prevBlock)
			}
		},
		Success: "Descargable actualizado",
	}, be.reload)
}

func (be *BlockEditor) RemoveDownloadable(ctx context.Context, id string) optimistic.Outcome {
	be.mu.RLock()
	blockID, _ := be.findDownloadable(id)
	be.mu.RUnlock()
	if blockID == "" {
		return be.reject("downloadable", core.NewStoreError(core.StoreNotFound, "remove downloadable "+id, nil))
	}

	var (
		prevDls   []academy.Downloadable
		prevBlock academy.Block
		refreshed academy.Block
	)
	return be.perform(ctx, optimistic.Mutation{
		Entity: "downloadable",
		Key:    blockKey(blockID),
		Apply: func() {
			i := be.downloadableIndex(blockID, id)
			if i < 0 {
				return
			}
			if j := be.blockIndex(blockID); j >= 0 {
				prevBlock = be.blocks[j]
			}
			prevDls = append([]academy.Downloadable(nil), be.downloadables[blockID]...)
			dls := be.downloadables[blockID]
			be.downloadables[blockID] = append(dls[:i:i], dls[i+1:]...)
			be.recompute(blockID)
		},
		Remote: func(ctx context.Context) (err error) {
			refreshed, err = be.svc.RemoveDownloadable(ctx, id)
			return err
		},
		Commit: func() { be.setBlock(refreshed) },
		Revert: func() {
			if prevDls != nil {
				be.downloadables[blockID] = prevDls
			}
			if prevBlock.ID != "" {
				be.setBlock(prevBlock)
			}
		},
		Success: "Descargable eliminado",
	}, be.reload)
}

// AssetTarget says where an uploaded file ends up: the block video, the block presentation,
// or the file of a downloadable.
type AssetTarget struct {
	Kind           academy.AssetKind
	BlockID        string
	DownloadableID string // AssetDownloadable only
}

// Upload is a file picked for upload.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// UploadAsset checks the size ceiling before anything else, stores the file, then saves its public URL
// on the target through the regular optimistic save.
func (be *BlockEditor) UploadAsset(ctx context.Context, target AssetTarget, file Upload) optimistic.Outcome {
	if err := be.svc.CheckUpload(target.Kind, file.Filename, file.Size); err != nil {
		return be.reject("upload", err)
	}

	switch target.Kind {
	case academy.AssetVideo, academy.AssetPresentation:
		blk, ok := be.Block(target.BlockID)
		if !ok {
			return be.reject("upload", core.NewStoreError(core.StoreNotFound, "upload to block "+target.BlockID, nil))
		}
		url, err := be.svc.UploadAsset(ctx, target.Kind, file.Filename, file.Content, file.Size)
		if err != nil {
			return be.reject("upload", err)
		}
		bc := academy.ContentOf(blk)
		if target.Kind == academy.AssetVideo {
			bc.VideoURL = url
		} else {
			bc.PPTURL = url
		}
		return be.SaveBlock(ctx, target.BlockID, bc)
	case academy.AssetDownloadable:
		be.mu.RLock()
		blockID, _ := be.findDownloadable(target.DownloadableID)
		be.mu.RUnlock()
		if blockID == "" {
			return be.reject("upload", core.NewStoreError(core.StoreNotFound, "upload to downloadable "+target.DownloadableID, nil))
		}
		url, err := be.svc.UploadAsset(ctx, target.Kind, file.Filename, file.Content, file.Size)
		if err != nil {
			return be.reject("upload", err)
		}
		return be.UpdateDownloadable(ctx, target.DownloadableID, academy.UpdateDownloadable{FileURL: &url})
	}
	return be.reject("upload", &core.UploadError{Reason: "unknown asset kind " + string(target.Kind)})
}

// CreateLinkedTask creates an academy task pointing back at the block (and its lesson).
// Without an assignee it is assigned to the current user.
func (be *BlockEditor) CreateLinkedTask(ctx context.Context, blockID string, nt task.NewTask) optimistic.Outcome {
	if be.tasks == nil {
		return be.reject("task", errors.New("tasks are not available"))
	}
	be.mu.RLock()
	lessonID := be.lessonID
	be.mu.RUnlock()

	nt.Subsystem = task.SubsystemAcademy
	nt.LessonID = lessonID
	nt.BlockID = blockID
	if len(nt.AssignedTo) == 0 {
		if id, ok := core.IdentityFrom(ctx); ok {
			nt.AssignedTo = []string{id.ID}
		}
	}
	if err := nt.Validate(); err != nil {
		return be.reject("task", err)
	}

	tmpID := newPlaceholderID()
	var stored task.Task
	taskIndex := func(id string) int {
		return indexOf(len(be.linked), func(i int) bool { return be.linked[i].ID == id })
	}
	return be.perform(ctx, optimistic.Mutation{
		Entity: "task",
		Key:    "task:" + tmpID,
		Apply: func() {
			be.linked = append(be.linked, placeholderTask(ctx, tmpID, nt))
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = be.tasks.Create(ctx, nt)
			return err
		},
		Commit: func() {
			if i := taskIndex(tmpID); i >= 0 {
				be.linked[i] = stored
			}
		},
		Revert: func() {
			if i := taskIndex(tmpID); i >= 0 {
				be.linked = append(be.linked[:i], be.linked[i+1:]...)
			}
		},
		Success: "Tarea creada",
	}, nil)
}
