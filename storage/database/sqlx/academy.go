package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
)

type academyRepository struct {
	db executor
}

var _ academy.Repository = (*academyRepository)(nil)

func NewAcademyRepository(db *sqlx.DB) academy.Repository {
	return &academyRepository{db: db}
}

// Atomic runs fn in a transaction. Inside one, it just runs fn.
func (repo *academyRepository) Atomic(ctx context.Context, fn func(academy.Repository) error) (err error) {
	db, ok := repo.db.(*sqlx.DB)
	if !ok {
		return fn(repo)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("Atomic", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	return storeError("Atomic", core.FinishTx(tx, fn(&academyRepository{db: tx})))
}

// Modules

func (repo *academyRepository) ListModules(ctx context.Context) ([]academy.Module, error) {
	mods := make([]academy.Module, 0)
	if err := repo.db.SelectContext(ctx, &mods, `SELECT * FROM academy_module ORDER BY position`); err != nil {
		return nil, storeError("ListModules", err)
	}
	return core.CheckRows("ListModules", mods, academy.CheckModule)
}

func (repo *academyRepository) GetModule(ctx context.Context, id string) (academy.Module, error) {
	var m academy.Module
	if err := repo.db.GetContext(ctx, &m, `SELECT * FROM academy_module WHERE id = $1`, id); err != nil {
		return academy.Module{}, storeError("GetModule", err)
	}
	return core.CheckRow("GetModule", m, academy.CheckModule)
}

func (repo *academyRepository) CreateModule(ctx context.Context, m academy.Module) (academy.Module, error) {
	var stored academy.Module
	err := repo.db.GetContext(ctx, &stored, `
		INSERT INTO academy_module (title, position, status, description)
		VALUES ($1, $2, $3, $4)
		RETURNING *`,
		m.Title, m.Order, m.Status, m.Description,
	)
	return stored, storeError("CreateModule", err)
}

func (repo *academyRepository) UpdateModule(ctx context.Context, m academy.Module) (academy.Module, error) {
	var stored academy.Module
	err := repo.db.GetContext(ctx, &stored, `
		UPDATE academy_module
		SET title = $2, position = $3, status = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING *`,
		m.ID, m.Title, m.Order, m.Status, m.Description,
	)
	return stored, storeError("UpdateModule", err)
}

// Lessons

func (repo *academyRepository) ListLessons(ctx context.Context, filter academy.LessonFilter) ([]academy.Lesson, error) {
	lessons := make([]academy.Lesson, 0)
	err := repo.db.SelectContext(ctx, &lessons, `
		SELECT * FROM academy_lesson
		WHERE ($1 = '' OR module_id::text = $1) AND ($2 = '' OR status = $2)
		ORDER BY module_id, position`,
		filter.ModuleID, string(filter.Status),
	)
	if err != nil {
		return nil, storeError("ListLessons", err)
	}
	return core.CheckRows("ListLessons", lessons, academy.CheckLesson)
}

func (repo *academyRepository) GetLesson(ctx context.Context, id string) (academy.Lesson, error) {
	var l academy.Lesson
	if err := repo.db.GetContext(ctx, &l, `SELECT * FROM academy_lesson WHERE id = $1`, id); err != nil {
		return academy.Lesson{}, storeError("GetLesson", err)
	}
	return core.CheckRow("GetLesson", l, academy.CheckLesson)
}

// CreateLesson appends the lesson to its module when no order is given.
func (repo *academyRepository) CreateLesson(ctx context.Context, l academy.Lesson) (academy.Lesson, error) {
	var stored academy.Lesson
	err := repo.db.GetContext(ctx, &stored, `
		INSERT INTO academy_lesson (module_id, title, position, status)
		VALUES ($1, $2, COALESCE(NULLIF($3, 0), (SELECT COALESCE(MAX(position), 0) + 1 FROM academy_lesson WHERE module_id = $1)), $4)
		RETURNING *`,
		l.ModuleID, l.Title, l.Order, l.Status,
	)
	return stored, storeError("CreateLesson", err)
}

func (repo *academyRepository) UpdateLesson(ctx context.Context, l academy.Lesson) (academy.Lesson, error) {
	var stored academy.Lesson
	err := repo.db.GetContext(ctx, &stored, `
		UPDATE academy_lesson
		SET module_id = $2, title = $3, position = $4, status = $5, updated_at = now()
		WHERE id = $1
		RETURNING *`,
		l.ID, l.ModuleID, l.Title, l.Order, l.Status,
	)
	return stored, storeError("UpdateLesson", err)
}

func (repo *academyRepository) DeleteLesson(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM academy_lesson WHERE id = $1`, id)
	return affected("DeleteLesson", res, err)
}

// Blocks

func (repo *academyRepository) ListBlocks(ctx context.Context, lessonIDs ...string) ([]academy.Block, error) {
	blocks := make([]academy.Block, 0)
	if len(lessonIDs) == 0 {
		return blocks, nil
	}
	q, args, err := sqlx.In(`SELECT * FROM academy_block WHERE lesson_id IN (?) ORDER BY lesson_id, block_number`, lessonIDs)
	if err != nil {
		return nil, storeError("ListBlocks", err)
	}
	if err = repo.db.SelectContext(ctx, &blocks, repo.db.Rebind(q), args...); err != nil {
		return nil, storeError("ListBlocks", err)
	}
	return core.CheckRows("ListBlocks", blocks, academy.CheckBlock)
}

func (repo *academyRepository) GetBlock(ctx context.Context, id string) (academy.Block, error) {
	var b academy.Block
	if err := repo.db.GetContext(ctx, &b, `SELECT * FROM academy_block WHERE id = $1`, id); err != nil {
		return academy.Block{}, storeError("GetBlock", err)
	}
	return core.CheckRow("GetBlock", b, academy.CheckBlock)
}

func (repo *academyRepository) CreateBlock(ctx context.Context, b academy.Block) (academy.Block, error) {
	var stored academy.Block
	err := repo.db.GetContext(ctx, &stored, `
		INSERT INTO academy_block (
			lesson_id, block_number, title, key_points, full_content, genspark_prompt,
			concepto, valor, accion, video_url, ppt_url, production_status, progress_percentage
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING *`,
		b.LessonID, b.BlockNumber, b.Title, b.KeyPoints, b.FullContent, b.GensparkPrompt,
		b.Concepto, b.Valor, b.Accion, b.VideoURL, b.PPTURL, b.ProductionStatus, b.ProgressPercentage,
	)
	return stored, storeError("CreateBlock", err)
}

func (repo *academyRepository) UpdateBlock(ctx context.Context, b academy.Block) (academy.Block, error) {
	var stored academy.Block
	err := repo.db.GetContext(ctx, &stored, `
		UPDATE academy_block
		SET title = $2, key_points = $3, full_content = $4, genspark_prompt = $5,
			concepto = $6, valor = $7, accion = $8, video_url = $9, ppt_url = $10,
			production_status = $11, progress_percentage = $12, updated_at = now()
		WHERE id = $1
		RETURNING *`,
		b.ID, b.Title, b.KeyPoints, b.FullContent, b.GensparkPrompt,
		b.Concepto, b.Valor, b.Accion, b.VideoURL, b.PPTURL,
		b.ProductionStatus, b.ProgressPercentage,
	)
	return stored, storeError("UpdateBlock", err)
}

func (repo *academyRepository) DeleteBlock(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM academy_block WHERE id = $1`, id)
	return affected("DeleteBlock", res, err)
}

// Downloadables

func (repo *academyRepository) ListDownloadables(ctx context.Context, blockIDs ...string) ([]academy.Downloadable, error) {
	dls := make([]academy.Downloadable, 0)
	if len(blockIDs) == 0 {
		return dls, nil
	}
	q, args, err := sqlx.In(`SELECT * FROM academy_downloadable WHERE block_id IN (?) ORDER BY block_id, position`, blockIDs)
	if err != nil {
		return nil, storeError("ListDownloadables", err)
	}
	if err = repo.db.SelectContext(ctx, &dls, repo.db.Rebind(q), args...); err != nil {
		return nil, storeError("ListDownloadables", err)
	}
	return core.CheckRows("ListDownloadables", dls, academy.CheckDownloadable)
}

func (repo *academyRepository) GetDownloadable(ctx context.Context, id string) (academy.Downloadable, error) {
	var d academy.Downloadable
	if err := repo.db.GetContext(ctx, &d, `SELECT * FROM academy_downloadable WHERE id = $1`, id); err != nil {
		return academy.Downloadable{}, storeError("GetDownloadable", err)
	}
	return core.CheckRow("GetDownloadable", d, academy.CheckDownloadable)
}

func (repo *academyRepository) CreateDownloadable(ctx context.Context, d academy.Downloadable) (academy.Downloadable, error) {
	d.SyncStatus()
	var stored academy.Downloadable
	err := repo.db.GetContext(ctx, &stored, `
		INSERT INTO academy_downloadable (block_id, name, type, prompt_generation, file_url, status, position)
		VALUES ($1, $2, $3, $4, $5, $6, (SELECT COALESCE(MAX(position), 0) + 1 FROM academy_downloadable WHERE block_id = $1))
		RETURNING *`,
		d.BlockID, d.Name, d.Type, d.PromptGeneration, d.FileURL, d.Status,
	)
	return stored, storeError("CreateDownloadable", err)
}

func (repo *academyRepository) UpdateDownloadable(ctx context.Context, d academy.Downloadable) (academy.Downloadable, error) {
	d.SyncStatus()
	var stored academy.Downloadable
	err := repo.db.GetContext(ctx, &stored, `
		UPDATE academy_downloadable
		SET name = $2, type = $3, prompt_generation = $4, file_url = $5, status = $6
		WHERE id = $1
		RETURNING *`,
		d.ID, d.Name, d.Type, d.PromptGeneration, d.FileURL, d.Status,
	)
	return stored, storeError("UpdateDownloadable", err)
}

func (repo *academyRepository) DeleteDownloadable(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM academy_downloadable WHERE id = $1`, id)
	return affected("DeleteDownloadable", res, err)
}
