package academy

import (
	"time"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

type (
	ModuleStatus       string
	LessonStatus       string
	ProductionStatus   string
	DownloadableType   string
	DownloadableStatus string
)

const (
	ModulePlanned    ModuleStatus = "planned"
	ModuleInProgress ModuleStatus = "in_progress"
	ModuleCompleted  ModuleStatus = "completed"

	LessonPlanned   LessonStatus = "planned"
	LessonScripted  LessonStatus = "scripted"
	LessonRecorded  LessonStatus = "recorded"
	LessonCompleted LessonStatus = "completed"

	NotStarted     ProductionStatus = "not_started"
	ContentCreated ProductionStatus = "content_created"
	PromptsReady   ProductionStatus = "prompts_ready"
	Recording      ProductionStatus = "recording"
	Editing        ProductionStatus = "editing"
	Completed      ProductionStatus = "completed"

	TypePDF   DownloadableType = "pdf"
	TypeExcel DownloadableType = "excel"
	TypeWord  DownloadableType = "word"
	TypeImage DownloadableType = "image"

	DownloadablePending  DownloadableStatus = "pending"
	DownloadableUploaded DownloadableStatus = "uploaded"

	// BlocksPerLesson is the fixed number of blocks every lesson owns.
	BlocksPerLesson = 3
)

var (
	ModuleStatuses       = []string{string(ModulePlanned), string(ModuleInProgress), string(ModuleCompleted)}
	LessonStatuses       = []string{string(LessonPlanned), string(LessonScripted), string(LessonRecorded), string(LessonCompleted)}
	ProductionStatuses   = []string{string(NotStarted), string(ContentCreated), string(PromptsReady), string(Recording), string(Editing), string(Completed)}
	DownloadableTypes    = []string{string(TypePDF), string(TypeExcel), string(TypeWord), string(TypeImage)}
	DownloadableStatuses = []string{string(DownloadablePending), string(DownloadableUploaded)}

	defaultBlockTitles = [BlocksPerLesson]string{
		"Bloque 1: Concepto",
		"Bloque 2: Valor",
		"Bloque 3: Acción",
	}
)

// DefaultBlockTitle returns the title a freshly created block gets for its number (1..3).
func DefaultBlockTitle(number int) string {
	if number < 1 || number > BlocksPerLesson {
		return ""
	}
	return defaultBlockTitles[number-1]
}

type Module struct {
	ID          string       `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Order       int          `json:"order" db:"position"`
	Status      ModuleStatus `json:"status" db:"status"`
	Description string       `json:"description" db:"description"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"` // UTC
}

type Lesson struct {
	ID        string       `json:"id" db:"id"`
	ModuleID  string       `json:"module_id" db:"module_id"`
	Title     string       `json:"title" db:"title"`
	Order     int          `json:"order" db:"position"`
	Status    LessonStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"` // UTC
}

type Block struct {
	ID             string `json:"id" db:"id"`
	LessonID       string `json:"lesson_id" db:"lesson_id"`
	BlockNumber    int    `json:"block_number" db:"block_number"`
	Title          string `json:"title" db:"title"`
	KeyPoints      string `json:"key_points" db:"key_points"`
	FullContent    string `json:"full_content" db:"full_content"`
	GensparkPrompt string `json:"genspark_prompt" db:"genspark_prompt"`
	Concepto       string `json:"concepto" db:"concepto"`
	Valor          string `json:"valor" db:"valor"`
	Accion         string `json:"accion" db:"accion"`
	VideoURL       string `json:"video_url" db:"video_url"`
	PPTURL         string `json:"ppt_url" db:"ppt_url"`

	// derived, only written through ComputeProgress
	ProductionStatus   ProductionStatus `json:"production_status" db:"production_status"`
	ProgressPercentage int              `json:"progress_percentage" db:"progress_percentage"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type Downloadable struct {
	ID               string             `json:"id" db:"id"`
	BlockID          string             `json:"block_id" db:"block_id"`
	Name             string             `json:"name" db:"name"`
	Type             DownloadableType   `json:"type" db:"type"`
	PromptGeneration string             `json:"prompt_generation" db:"prompt_generation"`
	FileURL          string             `json:"file_url" db:"file_url"`
	Status           DownloadableStatus `json:"status" db:"status"`
	Order            int                `json:"order" db:"position"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"` // UTC
}

// SyncStatus derives Status from FileURL presence.
func (d *Downloadable) SyncStatus() {
	if d.FileURL != "" {
		d.Status = DownloadableUploaded
	} else {
		d.Status = DownloadablePending
	}
}

// LessonTree is a lesson with its blocks and their downloadables, keyed by block id.
type LessonTree struct {
	Lesson        Lesson                    `json:"lesson"`
	Blocks        []Block                   `json:"blocks"`
	Downloadables map[string][]Downloadable `json:"downloadables"`
}

// NewLesson contains information needed to create a new Lesson (and its blocks).
type NewLesson struct {
	ModuleID string       `json:"module_id" validate:"required"`
	Title    string       `json:"title" validate:"notblank"`
	Order    int          `json:"order" validate:"min=0"`
	Status   LessonStatus `json:"status" validate:"omitempty,lesson_status"`
}

func (nl *NewLesson) Validate() error {
	nl.Title = core.CleanString(nl.Title)
	if nl.Status == "" {
		nl.Status = LessonPlanned
	}
	return core.Validate.Struct(nl)
}

// UpdateLesson defines what information may be provided to modify an existing Lesson.
type UpdateLesson struct {
	Title  *string       `json:"title"`
	Order  *int          `json:"order" validate:"omitempty,min=0"`
	Status *LessonStatus `json:"status" validate:"omitempty,lesson_status"`
}

func (ul *UpdateLesson) Validate() error {
	if ul.Title != nil {
		ul.Title = core.StrPtr(core.CleanString(*ul.Title))
	}
	if err := core.CheckNotBlank("title", ul.Title); err != nil {
		return err
	}
	return core.Validate.Struct(ul)
}

func (ul UpdateLesson) Apply(l Lesson) Lesson {
	if ul.Title != nil {
		l.Title = *ul.Title
	}
	if ul.Order != nil {
		l.Order = *ul.Order
	}
	if ul.Status != nil && *ul.Status != "" {
		l.Status = *ul.Status
	}
	return l
}

// NewModule is used by the seed command.
type NewModule struct {
	Title       string       `json:"title" yaml:"title" validate:"notblank"`
	Order       int          `json:"order" yaml:"order" validate:"min=0"`
	Status      ModuleStatus `json:"status" yaml:"status" validate:"omitempty,module_status"`
	Description string       `json:"description" yaml:"description"`
}

func (nm *NewModule) Validate() error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	if nm.Status == "" {
		nm.Status = ModulePlanned
	}
	return core.Validate.Struct(nm)
}

type UpdateModule struct {
	Title       *string       `json:"title"`
	Order       *int          `json:"order" validate:"omitempty,min=0"`
	Status      *ModuleStatus `json:"status" validate:"omitempty,module_status"`
	Description *string       `json:"description"`
}

func (um *UpdateModule) Validate() error {
	if um.Title != nil {
		um.Title = core.StrPtr(core.CleanString(*um.Title))
	}
	if err := core.CheckNotBlank("title", um.Title); err != nil {
		return err
	}
	return core.Validate.Struct(um)
}

func (um UpdateModule) Apply(m Module) Module {
	if um.Title != nil {
		m.Title = *um.Title
	}
	if um.Order != nil {
		m.Order = *um.Order
	}
	if um.Status != nil && *um.Status != "" {
		m.Status = *um.Status
	}
	if um.Description != nil {
		m.Description = *um.Description
	}
	return m
}

// BlockContent is the editable part of a Block, saved as a whole by the block editor.
type BlockContent struct {
	Title          string `json:"title"`
	KeyPoints      string `json:"key_points"`
	FullContent    string `json:"full_content"`
	GensparkPrompt string `json:"genspark_prompt"`
	Concepto       string `json:"concepto"`
	Valor          string `json:"valor"`
	Accion         string `json:"accion"`
	VideoURL       string `json:"video_url" validate:"omitempty,url"`
	PPTURL         string `json:"ppt_url" validate:"omitempty,url"`
}

func (bc *BlockContent) Validate() error {
	bc.Title = core.CleanString(bc.Title)
	bc.KeyPoints = core.CleanString(bc.KeyPoints)
	bc.FullContent = core.CleanString(bc.FullContent)
	bc.GensparkPrompt = core.CleanString(bc.GensparkPrompt)
	bc.VideoURL = core.CleanString(bc.VideoURL)
	bc.PPTURL = core.CleanString(bc.PPTURL)
	return core.Validate.Struct(bc)
}

func (bc BlockContent) Apply(b Block) Block {
	b.Title = bc.Title
	b.KeyPoints = bc.KeyPoints
	b.FullContent = bc.FullContent
	b.GensparkPrompt = bc.GensparkPrompt
	b.Concepto = bc.Concepto
	b.Valor = bc.Valor
	b.Accion = bc.Accion
	b.VideoURL = bc.VideoURL
	b.PPTURL = bc.PPTURL
	return b
}

// ContentOf returns the editable part of b.
func ContentOf(b Block) BlockContent {
	return BlockContent{
		Title:          b.Title,
		KeyPoints:      b.KeyPoints,
		FullContent:    b.FullContent,
		GensparkPrompt: b.GensparkPrompt,
		Concepto:       b.Concepto,
		Valor:          b.Valor,
		Accion:         b.Accion,
		VideoURL:       b.VideoURL,
		PPTURL:         b.PPTURL,
	}
}

type NewDownloadable struct {
	BlockID          string           `json:"block_id" validate:"required"`
	Name             string           `json:"name" validate:"notblank"`
	Type             DownloadableType `json:"type" validate:"downloadable_type"`
	PromptGeneration string           `json:"prompt_generation"`
	FileURL          string           `json:"file_url" validate:"omitempty,url"`
}

func (nd *NewDownloadable) Validate() error {
	nd.Name = core.CleanString(nd.Name)
	nd.FileURL = core.CleanString(nd.FileURL)
	if nd.Type == "" {
		nd.Type = TypePDF
	}
	return core.Validate.Struct(nd)
}

type UpdateDownloadable struct {
	Name             *string           `json:"name"`
	Type             *DownloadableType `json:"type" validate:"omitempty,downloadable_type"`
	PromptGeneration *string           `json:"prompt_generation"`
	FileURL          *string           `json:"file_url" validate:"omitempty,url|len=0"`
}

func (ud *UpdateDownloadable) Validate() error {
	if ud.Name != nil {
		ud.Name = core.StrPtr(core.CleanString(*ud.Name))
	}
	if ud.FileURL != nil {
		ud.FileURL = core.StrPtr(core.CleanString(*ud.FileURL))
	}
	if err := core.CheckNotBlank("name", ud.Name); err != nil {
		return err
	}
	return core.Validate.Struct(ud)
}

func (ud UpdateDownloadable) Apply(d Downloadable) Downloadable {
	if ud.Name != nil {
		d.Name = *ud.Name
	}
	if ud.Type != nil && *ud.Type != "" {
		d.Type = *ud.Type
	}
	if ud.PromptGeneration != nil {
		d.PromptGeneration = *ud.PromptGeneration
	}
	if ud.FileURL != nil {
		d.FileURL = *ud.FileURL
	}
	d.SyncStatus()
	return d
}

// AssetKind is the kind of file uploaded from the block editor.
type AssetKind string

const (
	AssetVideo        AssetKind = "video"
	AssetPresentation AssetKind = "ppt"
	AssetDownloadable AssetKind = "downloadable"
)

// Bucket returns the blob bucket an asset kind is stored in.
func (k AssetKind) Bucket() string {
	if k == AssetVideo {
		return core.BucketVideos
	}
	return core.BucketDocuments
}

// Limit returns the size ceiling that applies to an asset kind.
func (k AssetKind) Limit(limits core.UploadLimits) int64 {
	if k == AssetVideo {
		return limits.Video
	}
	return limits.Document
}
