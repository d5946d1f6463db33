package entities

import (
	"time"
)

// LogoImage is the nested image reference used by brands, benefits and corps.
type LogoImage struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// BrandRef is one payment-network entry attached to a card (Visa, Master, ...).
type BrandRef struct {
	No        int       `json:"no"`
	Idx       int       `json:"idx"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	RegDt     string    `json:"reg_dt"`
	Checked   bool      `json:"checked"`
	LogoImg   LogoImage `json:"logo_img"`
	IsVisible bool      `json:"is_visible"`
}

// BenefitRef is one headline benefit attached to a card.
type BenefitRef struct {
	Idx        int       `json:"idx"`
	Tags       []string  `json:"tags"`
	Title      string    `json:"title"`
	LogoImg    LogoImage `json:"logo_img"`
	InputValue string    `json:"inputValue"`
}

// CorpTip is a short promotional note published by the issuing company.
type CorpTip struct {
	Title    string `json:"title"`
	Contents string `json:"contents"`
}

// CorpRef is the issuing company block nested in a card record.
// PrDetailImg and PrDetailImgChk are always a list of strings after
// normalization, whatever shape the upstream delivered them in.
type CorpRef struct {
	Idx            int       `json:"idx"`
	Name           string    `json:"name"`
	Tips           []CorpTip `json:"tips,omitempty"`
	Color          string    `json:"color"`
	IsEvent        bool      `json:"is_event"`
	LogoImg        LogoImage `json:"logo_img"`
	NameEng        string    `json:"name_eng"`
	PrDetail       string    `json:"pr_detail"`
	IsVisible      bool      `json:"is_visible"`
	PrContainer    string    `json:"pr_container"`
	PrDetailChk    string    `json:"pr_detail_chk"`
	PrDetailImg    []string  `json:"pr_detail_img"`
	PrContainerChk string    `json:"pr_container_chk"`
	PrDetailImgChk []string  `json:"pr_detail_img_chk"`
}

// DetailSection is one expanded disclosure section scraped from a detail
// page: the toggle title plus the markup, plain text and list items of the
// content that followed it.
type DetailSection struct {
	Title string   `json:"title"`
	HTML  string   `json:"html"`
	Text  string   `json:"text"`
	Items []string `json:"items,omitempty"`
}

// Card is the canonical card record all ingestion paths converge to.
// CardIdx is the upstream identity and the upsert key; the unique index on it
// is what makes the upsert atomic at the storage layer.
type Card struct {
	ID             uint            `gorm:"primaryKey" json:"-"`
	CardIdx        int             `gorm:"uniqueIndex" json:"card_idx"`
	Name           string          `gorm:"index;size:512" json:"name"`
	Brand          []BrandRef      `gorm:"serializer:json" json:"brand"`
	TopBenefit     []BenefitRef    `gorm:"serializer:json" json:"top_benefit"`
	AnnualFeeBasic string          `gorm:"size:256" json:"annual_fee_basic"`
	Score          float64         `gorm:"index" json:"score"`
	CardImg        string          `gorm:"size:2048" json:"card_img"`
	EventTitle     string          `gorm:"size:512" json:"event_title"`
	Ranking        int             `gorm:"index" json:"ranking"`
	Compared       int             `json:"compared"`
	IsVisible      int             `json:"is_visible"`
	PrViewMode     int             `json:"pr_view_mode"`
	Corp           CorpRef         `gorm:"serializer:json" json:"corp"`
	DetailSections []DetailSection `gorm:"serializer:json" json:"detail_sections,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"index" json:"updated_at"`
}

// CardBrand is the fan-out row mirroring one brand entry, keyed by card_idx.
// Rows for a card are deleted and reinserted on every upsert.
type CardBrand struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CardIdx      int       `gorm:"index" json:"card_idx"`
	BrandNo      int       `json:"brand_no"`
	BrandIdx     int       `json:"brand_idx"`
	BrandCode    string    `gorm:"size:50" json:"brand_code"`
	BrandName    string    `gorm:"index;size:256" json:"brand_name"`
	BrandLogoURL string    `gorm:"size:2048" json:"brand_logo_url"`
	IsVisible    bool      `json:"is_visible"`
	CreatedAt    time.Time `json:"created_at"`
}

// CardBenefit is the fan-out row mirroring one benefit entry.
type CardBenefit struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CardIdx        int       `gorm:"index" json:"card_idx"`
	BenefitIdx     int       `json:"benefit_idx"`
	BenefitTitle   string    `gorm:"index;size:512" json:"benefit_title"`
	BenefitTags    []string  `gorm:"serializer:json" json:"benefit_tags"`
	BenefitLogoURL string    `gorm:"size:2048" json:"benefit_logo_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// CardCorp is the fan-out row mirroring the issuing company block.
type CardCorp struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CardIdx     int       `gorm:"index" json:"card_idx"`
	CorpIdx     int       `json:"corp_idx"`
	CorpName    string    `gorm:"index;size:256" json:"corp_name"`
	CorpNameEng string    `gorm:"size:256" json:"corp_name_eng"`
	CorpLogoURL string    `gorm:"size:2048" json:"corp_logo_url"`
	CorpColor   string    `gorm:"size:20" json:"corp_color"`
	IsEvent     bool      `json:"is_event"`
	PrDetail    string    `gorm:"type:text" json:"pr_detail"`
	CreatedAt   time.Time `json:"created_at"`
}

// CollectionLog is the immutable audit record written exactly once at the end
// of every pipeline invocation. It is never updated or deleted afterwards.
type CollectionLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RunID          string    `gorm:"size:36" json:"run_id"`
	CollectionDate string    `gorm:"index;size:10" json:"collection_date"` // YYYY-MM-DD
	Term           string    `gorm:"size:20" json:"term"`
	CardGb         string    `gorm:"size:10" json:"card_gb"`
	LimitCount     int       `json:"limit_count"`
	ChartType      string    `gorm:"size:50" json:"chart_type"`
	TotalCards     int       `json:"total_cards"`
	SuccessCount   int       `json:"success_count"`
	ErrorCount     int       `json:"error_count"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}
