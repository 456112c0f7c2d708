package academy

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

type Service struct {
	repo   Repository
	blobs  core.BlobStore
	limits core.UploadLimits
	logger core.Logger
}

func NewService(repo Repository, blobs core.BlobStore, limits core.UploadLimits, logger core.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, limits: limits, logger: logger}
}

// Modules

func (svc *Service) ListModules(ctx context.Context) ([]Module, error) {
	return svc.repo.ListModules(ctx)
}

func (svc *Service) UpdateModule(ctx context.Context, id string, um UpdateModule) (Module, error) {
	if err := um.Validate(); err != nil {
		return Module{}, err
	}
	mod, err := svc.repo.GetModule(ctx, id)
	if err != nil {
		return Module{}, errors.Wrap(err, "getting module")
	}
	return svc.repo.UpdateModule(ctx, um.Apply(mod))
}

// SeedModules creates the given modules, updating the ones whose order already exists.
func (svc *Service) SeedModules(ctx context.Context, nms []NewModule) ([]Module, error) {
	existing, err := svc.repo.ListModules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing modules")
	}
	byOrder := make(map[int]Module, len(existing))
	for _, m := range existing {
		byOrder[m.Order] = m
	}

	mods := make([]Module, 0, len(nms))
	for i := range nms {
		nm := nms[i]
		if err := nm.Validate(); err != nil {
			return mods, errors.Wrapf(err, "module #%d", i+1)
		}
		var mod Module
		if orig, ok := byOrder[nm.Order]; ok {
			orig.Title, orig.Status, orig.Description = nm.Title, nm.Status, nm.Description
			mod, err = svc.repo.UpdateModule(ctx, orig)
		} else {
			mod, err = svc.repo.CreateModule(ctx, Module{
				Title:       nm.Title,
				Order:       nm.Order,
				Status:      nm.Status,
				Description: nm.Description,
			})
		}
		if err != nil {
			return mods, errors.Wrapf(err, "seeding module %q", nm.Title)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// Lessons

func (svc *Service) ListLessons(ctx context.Context, filter LessonFilter) ([]Lesson, error) {
	return svc.repo.ListLessons(ctx, filter)
}

// GetLessonTree loads a lesson with its blocks and their downloadables.
func (svc *Service) GetLessonTree(ctx context.Context, lessonID string) (LessonTree, error) {
	lsn, err := svc.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return LessonTree{}, errors.Wrap(err, "getting lesson")
	}
	blocks, err := svc.repo.ListBlocks(ctx, lessonID)
	if err != nil {
		return LessonTree{}, errors.Wrap(err, "listing blocks")
	}
	tree := LessonTree{Lesson: lsn, Blocks: blocks, Downloadables: make(map[string][]Downloadable, len(blocks))}
	if len(blocks) == 0 {
		return tree, nil
	}
	dls, err := svc.repo.ListDownloadables(ctx, blockIDs(blocks)...)
	if err != nil {
		return LessonTree{}, errors.Wrap(err, "listing downloadables")
	}
	for _, dl := range dls {
		tree.Downloadables[dl.BlockID] = append(tree.Downloadables[dl.BlockID], dl)
	}
	return tree, nil
}

// CreateLesson creates a lesson and its three default blocks (0 / not_started) in one unit of work.
func (svc *Service) CreateLesson(ctx context.Context, nl NewLesson) (LessonTree, error) {
	if err := nl.Validate(); err != nil {
		return LessonTree{}, err
	}
	if _, err := svc.repo.GetModule(ctx, nl.ModuleID); err != nil {
		return LessonTree{}, errors.Wrap(err, "getting module")
	}

	var tree LessonTree
	err := svc.repo.Atomic(ctx, func(repo Repository) error {
		lsn, err := repo.CreateLesson(ctx, Lesson{
			ModuleID: nl.ModuleID,
			Title:    nl.Title,
			Order:    nl.Order,
			Status:   nl.Status,
		})
		if err != nil {
			return errors.Wrap(err, "creating lesson")
		}

		tree = LessonTree{Lesson: lsn, Blocks: make([]Block, 0, BlocksPerLesson), Downloadables: map[string][]Downloadable{}}
		for num := 1; num <= BlocksPerLesson; num++ {
			blk := WithProgress(Block{LessonID: lsn.ID, BlockNumber: num, Title: DefaultBlockTitle(num)}, nil)
			if blk, err = repo.CreateBlock(ctx, blk); err != nil {
				return errors.Wrapf(err, "creating block %d", num)
			}
			tree.Blocks = append(tree.Blocks, blk)
		}
		return nil
	})
	if err != nil {
		return LessonTree{}, err
	}
	return tree, nil
}

func (svc *Service) UpdateLesson(ctx context.Context, id string, ul UpdateLesson) (Lesson, error) {
	if err := ul.Validate(); err != nil {
		return Lesson{}, err
	}
	lsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return svc.repo.UpdateLesson(ctx, ul.Apply(lsn))
}

// DeleteLesson deletes every downloadable of the lesson's blocks, then the blocks, then the lesson.
// Nothing is deleted unless all of it is.
func (svc *Service) DeleteLesson(ctx context.Context, id string) error {
	return svc.repo.Atomic(ctx, func(repo Repository) error {
		blocks, err := repo.ListBlocks(ctx, id)
		if err != nil {
			return errors.Wrap(err, "listing blocks")
		}
		if len(blocks) > 0 {
			dls, err := repo.ListDownloadables(ctx, blockIDs(blocks)...)
			if err != nil {
				return errors.Wrap(err, "listing downloadables")
			}
			for _, dl := range dls {
				if err := repo.DeleteDownloadable(ctx, dl.ID); err != nil {
					return errors.Wrapf(err, "deleting downloadable %s", dl.ID)
				}
			}
			for _, blk := range blocks {
				if err := repo.DeleteBlock(ctx, blk.ID); err != nil {
					return errors.Wrapf(err, "deleting block %s", blk.ID)
				}
			}
		}
		return errors.Wrap(repo.DeleteLesson(ctx, id), "deleting lesson")
	})
}

// Blocks

func (svc *Service) ListBlocks(ctx context.Context, lessonIDs ...string) ([]Block, error) {
	if len(lessonIDs) == 0 {
		return []Block{}, nil
	}
	return svc.repo.ListBlocks(ctx, lessonIDs...)
}

// SaveBlock stores the block content and persists the recomputed progress along with it.
func (svc *Service) SaveBlock(ctx context.Context, id string, bc BlockContent) (Block, error) {
	if err := bc.Validate(); err != nil {
		return Block{}, err
	}
	blk, err := svc.repo.GetBlock(ctx, id)
	if err != nil {
		return Block{}, errors.Wrap(err, "getting block")
	}
	dls, err := svc.repo.ListDownloadables(ctx, id)
	if err != nil {
		return Block{}, errors.Wrap(err, "listing downloadables")
	}
	return svc.repo.UpdateBlock(ctx, WithProgress(bc.Apply(blk), dls))
}

// RefreshBlock recomputes and persists the progress of a block, eg. after its downloadables changed.
func (svc *Service) RefreshBlock(ctx context.Context, id string) (Block, error) {
	return refreshBlock(ctx, svc.repo, id)
}

func refreshBlock(ctx context.Context, repo Repository, id string) (Block, error) {
	blk, err := repo.GetBlock(ctx, id)
	if err != nil {
		return Block{}, errors.Wrap(err, "getting block")
	}
	dls, err := repo.ListDownloadables(ctx, id)
	if err != nil {
		return Block{}, errors.Wrap(err, "listing downloadables")
	}
	refreshed := WithProgress(blk, dls)
	if refreshed.ProgressPercentage == blk.ProgressPercentage && refreshed.ProductionStatus == blk.ProductionStatus {
		return blk, nil
	}
	return repo.UpdateBlock(ctx, refreshed)
}

// Downloadables
//
// Every downloadable write is committed together with the progress refresh of its parent block.

func (svc *Service) ListDownloadables(ctx context.Context, blockIDs ...string) ([]Downloadable, error) {
	if len(blockIDs) == 0 {
		return []Downloadable{}, nil
	}
	return svc.repo.ListDownloadables(ctx, blockIDs...)
}

// AddDownloadable creates a downloadable and returns it along with its refreshed parent block.
func (svc *Service) AddDownloadable(ctx context.Context, nd NewDownloadable) (dl Downloadable, blk Block, err error) {
	if err = nd.Validate(); err != nil {
		return Downloadable{}, Block{}, err
	}
	err = svc.repo.Atomic(ctx, func(repo Repository) error {
		created := Downloadable{
			BlockID:          nd.BlockID,
			Name:             nd.Name,
			Type:             nd.Type,
			PromptGeneration: nd.PromptGeneration,
			FileURL:          nd.FileURL,
		}
		created.SyncStatus()
		if dl, err = repo.CreateDownloadable(ctx, created); err != nil {
			return errors.Wrap(err, "creating downloadable")
		}
		blk, err = refreshBlock(ctx, repo, dl.BlockID)
		return errors.Wrap(err, "refreshing block")
	})
	if err != nil {
		return Downloadable{}, Block{}, err
	}
	return dl, blk, nil
}

func (svc *Service) UpdateDownloadable(ctx context.Context, id string, ud UpdateDownloadable) (dl Downloadable, blk Block, err error) {
	if err = ud.Validate(); err != nil {
		return Downloadable{}, Block{}, err
	}
	err = svc.repo.Atomic(ctx, func(repo Repository) error {
		orig, err := repo.GetDownloadable(ctx, id)
		if err != nil {
			return errors.Wrap(err, "getting downloadable")
		}
		if dl, err = repo.UpdateDownloadable(ctx, ud.Apply(orig)); err != nil {
			return errors.Wrap(err, "updating downloadable")
		}
		blk, err = refreshBlock(ctx, repo, dl.BlockID)
		return errors.Wrap(err, "refreshing block")
	})
	if err != nil {
		return Downloadable{}, Block{}, err
	}
	return dl, blk, nil
}

// RemoveDownloadable deletes a downloadable and returns its refreshed parent block.
func (svc *Service) RemoveDownloadable(ctx context.Context, id string) (blk Block, err error) {
	err = svc.repo.Atomic(ctx, func(repo Repository) error {
		dl, err := repo.GetDownloadable(ctx, id)
		if err != nil {
			return errors.Wrap(err, "getting downloadable")
		}
		if err := repo.DeleteDownloadable(ctx, id); err != nil {
			return errors.Wrap(err, "deleting downloadable")
		}
		blk, err = refreshBlock(ctx, repo, dl.BlockID)
		return errors.Wrap(err, "refreshing block")
	})
	if err != nil {
		return Block{}, err
	}
	return blk, nil
}

// Uploads

// CheckUpload rejects files above the ceiling of their asset kind. No store call is made.
func (svc *Service) CheckUpload(kind AssetKind, filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return &core.UploadError{Reason: "missing file name"}
	}
	if size <= 0 {
		return &core.UploadError{Reason: "empty file"}
	}
	if limit := kind.Limit(svc.limits); limit > 0 && size > limit {
		return &core.UploadError{Reason: fmt.Sprintf("%s file too large", kind), Limit: limit}
	}
	return nil
}

// UploadAsset stores the file in the blob store and returns its public URL.
func (svc *Service) UploadAsset(ctx context.Context, kind AssetKind, filename string, r io.Reader, size int64) (string, error) {
	if err := svc.CheckUpload(kind, filename, size); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s/%s%s", kind, time.Now().UTC().Format("2006/01"), uuid.NewString(), strings.ToLower(path.Ext(filename)))
	bucket := kind.Bucket()
	if err := svc.blobs.Upload(ctx, bucket, key, r, size); err != nil {
		svc.logger.Error(fmt.Sprintf("storing %s/%s: %v", bucket, key, err), err)
		return "", &core.UploadError{Reason: "the file could not be stored"}
	}
	return svc.blobs.PublicURL(bucket, key), nil
}

func blockIDs(blocks []Block) []string {
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	return ids
}
