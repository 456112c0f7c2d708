package inmemdb

import (
	"context"
	"sort"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
)

type academyRepository struct {
	db   *DB
	inTx bool
}

var _ academy.Repository = (*academyRepository)(nil)

func NewAcademyRepository(db *DB) academy.Repository {
	return &academyRepository{db: db}
}

func (repo *academyRepository) begin(op string, write bool) (func(), error) {
	return repo.db.enter(op, write, write && !repo.inTx)
}

// Atomic serializes units of work. Reads made outside one may see its uncommitted writes.
func (repo *academyRepository) Atomic(_ context.Context, fn func(academy.Repository) error) error {
	if repo.inTx {
		return fn(repo)
	}
	tx, err := repo.db.beginTx("Atomic")
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	return core.FinishTx(tx, fn(&academyRepository{db: repo.db, inTx: true}))
}

// Modules

func (repo *academyRepository) ListModules(_ context.Context) ([]academy.Module, error) {
	done, err := repo.begin("ListModules", false)
	defer done()
	if err != nil {
		return nil, err
	}
	mods := make([]academy.Module, 0, len(repo.db.modules))
	for _, m := range repo.db.modules {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Order < mods[j].Order })
	return core.CheckRows("ListModules", mods, academy.CheckModule)
}

func (repo *academyRepository) GetModule(_ context.Context, id string) (academy.Module, error) {
	done, err := repo.begin("GetModule", false)
	defer done()
	if err != nil {
		return academy.Module{}, err
	}
	if m, ok := repo.db.modules[id]; ok {
		return core.CheckRow("GetModule", m, academy.CheckModule)
	}
	return academy.Module{}, notFound("GetModule", "module", id)
}

func (repo *academyRepository) checkModuleOrder(op string, m academy.Module) error {
	for _, other := range repo.db.modules {
		if other.ID != m.ID && other.Order == m.Order {
			return constraint(op, "module order %d already taken", m.Order)
		}
	}
	return nil
}

func (repo *academyRepository) CreateModule(_ context.Context, m academy.Module) (academy.Module, error) {
	done, err := repo.begin("CreateModule", true)
	defer done()
	if err != nil {
		return academy.Module{}, err
	}
	if err := repo.checkModuleOrder("CreateModule", m); err != nil {
		return academy.Module{}, err
	}
	m.ID = newID()
	m.CreatedAt = repo.db.now()
	m.UpdatedAt = m.CreatedAt
	repo.db.modules[m.ID] = m
	return m, nil
}

func (repo *academyRepository) UpdateModule(_ context.Context, m academy.Module) (academy.Module, error) {
	done, err := repo.begin("UpdateModule", true)
	defer done()
	if err != nil {
		return academy.Module{}, err
	}
	orig, ok := repo.db.modules[m.ID]
	if !ok {
		return academy.Module{}, notFound("UpdateModule", "module", m.ID)
	}
	if err := repo.checkModuleOrder("UpdateModule", m); err != nil {
		return academy.Module{}, err
	}
	m.CreatedAt = orig.CreatedAt
	m.UpdatedAt = repo.db.now()
	repo.db.modules[m.ID] = m
	return m, nil
}

// Lessons

func (repo *academyRepository) ListLessons(_ context.Context, filter academy.LessonFilter) ([]academy.Lesson, error) {
	done, err := repo.begin("ListLessons", false)
	defer done()
	if err != nil {
		return nil, err
	}
	lessons := make([]academy.Lesson, 0)
	for _, l := range repo.db.lessons {
		if filter.ModuleID != "" && l.ModuleID != filter.ModuleID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		lessons = append(lessons, l)
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].ModuleID != lessons[j].ModuleID {
			return lessons[i].ModuleID < lessons[j].ModuleID
		}
		return lessons[i].Order < lessons[j].Order
	})
	return core.CheckRows("ListLessons", lessons, academy.CheckLesson)
}

func (repo *academyRepository) GetLesson(_ context.Context, id string) (academy.Lesson, error) {
	done, err := repo.begin("GetLesson", false)
	defer done()
	if err != nil {
		return academy.Lesson{}, err
	}
	if l, ok := repo.db.lessons[id]; ok {
		return core.CheckRow("GetLesson", l, academy.CheckLesson)
	}
	return academy.Lesson{}, notFound("GetLesson", "lesson", id)
}

func (repo *academyRepository) checkLesson(op string, l academy.Lesson) error {
	if _, ok := repo.db.modules[l.ModuleID]; !ok {
		return constraint(op, "module %s does not exist", l.ModuleID)
	}
	for _, other := range repo.db.lessons {
		if other.ID != l.ID && other.ModuleID == l.ModuleID && other.Order == l.Order {
			return constraint(op, "lesson order %d already taken in module %s", l.Order, l.ModuleID)
		}
	}
	return nil
}

func (repo *academyRepository) CreateLesson(_ context.Context, l academy.Lesson) (academy.Lesson, error) {
	done, err := repo.begin("CreateLesson", true)
	defer done()
	if err != nil {
		return academy.Lesson{}, err
	}
	if l.Order == 0 {
		l.Order = repo.nextLessonOrder(l.ModuleID)
	}
	if err := repo.checkLesson("CreateLesson", l); err != nil {
		return academy.Lesson{}, err
	}
	l.ID = newID()
	l.CreatedAt = repo.db.now()
	l.UpdatedAt = l.CreatedAt
	repo.db.lessons[l.ID] = l
	return l, nil
}

func (repo *academyRepository) nextLessonOrder(moduleID string) int {
	var max int
	for _, l := range repo.db.lessons {
		if l.ModuleID == moduleID && l.Order > max {
			max = l.Order
		}
	}
	return max + 1
}

func (repo *academyRepository) UpdateLesson(_ context.Context, l academy.Lesson) (academy.Lesson, error) {
	done, err := repo.begin("UpdateLesson", true)
	defer done()
	if err != nil {
		return academy.Lesson{}, err
	}
	orig, ok := repo.db.lessons[l.ID]
	if !ok {
		return academy.Lesson{}, notFound("UpdateLesson", "lesson", l.ID)
	}
	if err := repo.checkLesson("UpdateLesson", l); err != nil {
		return academy.Lesson{}, err
	}
	l.CreatedAt = orig.CreatedAt
	l.UpdatedAt = repo.db.now()
	repo.db.lessons[l.ID] = l
	return l, nil
}

func (repo *academyRepository) DeleteLesson(_ context.Context, id string) error {
	done, err := repo.begin("DeleteLesson", true)
	defer done()
	if err != nil {
		return err
	}
	if _, ok := repo.db.lessons[id]; !ok {
		return notFound("DeleteLesson", "lesson", id)
	}
	for _, b := range repo.db.blocks {
		if b.LessonID == id {
			return constraint("DeleteLesson", "lesson %s is still referenced by block %s", id, b.ID)
		}
	}
	delete(repo.db.lessons, id)
	repo.db.unlinkLesson(id)
	return nil
}

// Blocks

func (repo *academyRepository) ListBlocks(_ context.Context, lessonIDs ...string) ([]academy.Block, error) {
	done, err := repo.begin("ListBlocks", false)
	defer done()
	if err != nil {
		return nil, err
	}
	blocks := make([]academy.Block, 0)
	for _, b := range repo.db.blocks {
		if contains(lessonIDs, b.LessonID) {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].LessonID != blocks[j].LessonID {
			return blocks[i].LessonID < blocks[j].LessonID
		}
		return blocks[i].BlockNumber < blocks[j].BlockNumber
	})
	return core.CheckRows("ListBlocks", blocks, academy.CheckBlock)
}

func (repo *academyRepository) GetBlock(_ context.Context, id string) (academy.Block, error) {
	done, err := repo.begin("GetBlock", false)
	defer done()
	if err != nil {
		return academy.Block{}, err
	}
	if b, ok := repo.db.blocks[id]; ok {
		return core.CheckRow("GetBlock", b, academy.CheckBlock)
	}
	return academy.Block{}, notFound("GetBlock", "block", id)
}

func (repo *academyRepository) CreateBlock(_ context.Context, b academy.Block) (academy.Block, error) {
	done, err := repo.begin("CreateBlock", true)
	defer done()
	if err != nil {
		return academy.Block{}, err
	}
	if _, ok := repo.db.lessons[b.LessonID]; !ok {
		return academy.Block{}, constraint("CreateBlock", "lesson %s does not exist", b.LessonID)
	}
	if b.BlockNumber < 1 || b.BlockNumber > academy.BlocksPerLesson {
		return academy.Block{}, constraint("CreateBlock", "block_number %d out of range", b.BlockNumber)
	}
	for _, other := range repo.db.blocks {
		if other.LessonID == b.LessonID && other.BlockNumber == b.BlockNumber {
			return academy.Block{}, constraint("CreateBlock", "block %d already exists in lesson %s", b.BlockNumber, b.LessonID)
		}
	}
	b.ID = newID()
	b.CreatedAt = repo.db.now()
	b.UpdatedAt = b.CreatedAt
	repo.db.blocks[b.ID] = b
	return b, nil
}

// UpdateBlock never moves a block: lesson and block number stay as created.
func (repo *academyRepository) UpdateBlock(_ context.Context, b academy.Block) (academy.Block, error) {
	done, err := repo.begin("UpdateBlock", true)
	defer done()
	if err != nil {
		return academy.Block{}, err
	}
	orig, ok := repo.db.blocks[b.ID]
	if !ok {
		return academy.Block{}, notFound("UpdateBlock", "block", b.ID)
	}
	b.LessonID = orig.LessonID
	b.BlockNumber = orig.BlockNumber
	b.CreatedAt = orig.CreatedAt
	b.UpdatedAt = repo.db.now()
	repo.db.blocks[b.ID] = b
	return b, nil
}

func (repo *academyRepository) DeleteBlock(_ context.Context, id string) error {
	done, err := repo.begin("DeleteBlock", true)
	defer done()
	if err != nil {
		return err
	}
	if _, ok := repo.db.blocks[id]; !ok {
		return notFound("DeleteBlock", "block", id)
	}
	for _, d := range repo.db.downloadables {
		if d.BlockID == id {
			return constraint("DeleteBlock", "block %s is still referenced by downloadable %s", id, d.ID)
		}
	}
	delete(repo.db.blocks, id)
	repo.db.unlinkBlock(id)
	return nil
}

// Downloadables

func (repo *academyRepository) ListDownloadables(_ context.Context, blockIDs ...string) ([]academy.Downloadable, error) {
	done, err := repo.begin("ListDownloadables", false)
	defer done()
	if err != nil {
		return nil, err
	}
	dls := make([]academy.Downloadable, 0)
	for _, d := range repo.db.downloadables {
		if contains(blockIDs, d.BlockID) {
			dls = append(dls, d)
		}
	}
	sort.Slice(dls, func(i, j int) bool {
		if dls[i].BlockID != dls[j].BlockID {
			return dls[i].BlockID < dls[j].BlockID
		}
		return dls[i].Order < dls[j].Order
	})
	return core.CheckRows("ListDownloadables", dls, academy.CheckDownloadable)
}

func (repo *academyRepository) GetDownloadable(_ context.Context, id string) (academy.Downloadable, error) {
	done, err := repo.begin("GetDownloadable", false)
	defer done()
	if err != nil {
		return academy.Downloadable{}, err
	}
	if d, ok := repo.db.downloadables[id]; ok {
		return core.CheckRow("GetDownloadable", d, academy.CheckDownloadable)
	}
	return academy.Downloadable{}, notFound("GetDownloadable", "downloadable", id)
}

func (repo *academyRepository) CreateDownloadable(_ context.Context, d academy.Downloadable) (academy.Downloadable, error) {
	done, err := repo.begin("CreateDownloadable", true)
	defer done()
	if err != nil {
		return academy.Downloadable{}, err
	}
	if _, ok := repo.db.blocks[d.BlockID]; !ok {
		return academy.Downloadable{}, constraint("CreateDownloadable", "block %s does not exist", d.BlockID)
	}
	if d.Name == "" {
		return academy.Downloadable{}, constraint("CreateDownloadable", "name cannot be empty")
	}
	var max int
	for _, other := range repo.db.downloadables {
		if other.BlockID == d.BlockID && other.Order > max {
			max = other.Order
		}
	}
	d.ID = newID()
	d.Order = max + 1
	d.SyncStatus()
	d.CreatedAt = repo.db.now()
	repo.db.downloadables[d.ID] = d
	return d, nil
}

func (repo *academyRepository) UpdateDownloadable(_ context.Context, d academy.Downloadable) (academy.Downloadable, error) {
	done, err := repo.begin("UpdateDownloadable", true)
	defer done()
	if err != nil {
		return academy.Downloadable{}, err
	}
	orig, ok := repo.db.downloadables[d.ID]
	if !ok {
		return academy.Downloadable{}, notFound("UpdateDownloadable", "downloadable", d.ID)
	}
	if d.Name == "" {
		return academy.Downloadable{}, constraint("UpdateDownloadable", "name cannot be empty")
	}
	d.BlockID = orig.BlockID
	d.Order = orig.Order
	d.CreatedAt = orig.CreatedAt
	d.SyncStatus()
	repo.db.downloadables[d.ID] = d
	return d, nil
}

func (repo *academyRepository) DeleteDownloadable(_ context.Context, id string) error {
	done, err := repo.begin("DeleteDownloadable", true)
	defer done()
	if err != nil {
		return err
	}
	if _, ok := repo.db.downloadables[id]; !ok {
		return notFound("DeleteDownloadable", "downloadable", id)
	}
	delete(repo.db.downloadables, id)
	return nil
}
