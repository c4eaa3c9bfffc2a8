package domain

// Localized file types of an app.
const (
	FileTypeIcon           = "icon"
	FileTypeFeatureGraphic = "featureGraphic"
	FileTypePromoGraphic   = "promoGraphic"
	FileTypeTVBanner       = "tvBanner"
)

// Screenshot list types of an app.
const (
	ScreenshotPhone     = "phone"
	ScreenshotSevenInch = "sevenInch"
	ScreenshotTenInch   = "tenInch"
	ScreenshotWear      = "wear"
	ScreenshotTV        = "tv"
)

// FileTypes lists the single-file localized resources in diff order.
var FileTypes = []string{FileTypeIcon, FileTypeFeatureGraphic, FileTypePromoGraphic, FileTypeTVBanner}

// ScreenshotTypes lists the screenshot list kinds in diff order.
var ScreenshotTypes = []string{
	ScreenshotPhone, ScreenshotSevenInch, ScreenshotTenInch, ScreenshotWear, ScreenshotTV,
}

// AppMetadata is the descriptive record of a package as published by one repository.
// Almost every field is optional. The JSON form is what an index diff merges into.
type AppMetadata struct {
	RepoID      int64  `json:"-"`
	PackageName string `json:"-"`

	Added       int64 `json:"added"`
	LastUpdated int64 `json:"lastUpdated"`

	Name        LocalizedText `json:"name,omitempty"`
	Summary     LocalizedText `json:"summary,omitempty"`
	Description LocalizedText `json:"description,omitempty"`
	Video       LocalizedText `json:"video,omitempty"`

	WebSite         string   `json:"webSite,omitempty"`
	Changelog       string   `json:"changelog,omitempty"`
	License         string   `json:"license,omitempty"`
	SourceCode      string   `json:"sourceCode,omitempty"`
	IssueTracker    string   `json:"issueTracker,omitempty"`
	Translation     string   `json:"translation,omitempty"`
	PreferredSigner string   `json:"preferredSigner,omitempty"`
	AuthorName      string   `json:"authorName,omitempty"`
	AuthorEmail     string   `json:"authorEmail,omitempty"`
	AuthorWebSite   string   `json:"authorWebSite,omitempty"`
	AuthorPhone     string   `json:"authorPhone,omitempty"`
	Donate          []string `json:"donate,omitempty"`
	LiberapayID     string   `json:"liberapayID,omitempty"`
	Liberapay       string   `json:"liberapay,omitempty"`
	OpenCollective  string   `json:"openCollective,omitempty"`
	Bitcoin         string   `json:"bitcoin,omitempty"`
	Litecoin        string   `json:"litecoin,omitempty"`
	FlattrID        string   `json:"flattrID,omitempty"`
	Categories      []string `json:"categories,omitempty"`

	// LocalizedName and LocalizedSummary cache the best-locale values of
	// Name and Summary. They are re-derived whenever either changes.
	LocalizedName    string `json:"-"`
	LocalizedSummary string `json:"-"`

	// IsCompatible is true when at least one version is compatible with the
	// device. It is always recomputed from versions and never read from input.
	IsCompatible bool `json:"-"`
}

// UpdateLocaleCache re-derives LocalizedName and LocalizedSummary.
func (m *AppMetadata) UpdateLocaleCache(locales []string) {
	m.LocalizedName = BestText(m.Name, locales)
	m.LocalizedSummary = BestText(m.Summary, locales)
}

// InCategory reports whether the app declares category.
func (m *AppMetadata) InCategory(category string) bool {
	for _, c := range m.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Screenshots groups the screenshot lists of an app by form factor.
type Screenshots struct {
	Phone     LocalizedFileList `json:"phone,omitempty" validate:"omitempty,dive,dive"`
	SevenInch LocalizedFileList `json:"sevenInch,omitempty" validate:"omitempty,dive,dive"`
	TenInch   LocalizedFileList `json:"tenInch,omitempty" validate:"omitempty,dive,dive"`
	Wear      LocalizedFileList `json:"wear,omitempty" validate:"omitempty,dive,dive"`
	TV        LocalizedFileList `json:"tv,omitempty" validate:"omitempty,dive,dive"`
}

// ByType returns the list for a screenshot type.
func (s *Screenshots) ByType(kind string) LocalizedFileList {
	if s == nil {
		return nil
	}
	switch kind {
	case ScreenshotPhone:
		return s.Phone
	case ScreenshotSevenInch:
		return s.SevenInch
	case ScreenshotTenInch:
		return s.TenInch
	case ScreenshotWear:
		return s.Wear
	case ScreenshotTV:
		return s.TV
	default:
		return nil
	}
}

// Set stores the list for a screenshot type.
func (s *Screenshots) Set(kind string, list LocalizedFileList) {
	switch kind {
	case ScreenshotPhone:
		s.Phone = list
	case ScreenshotSevenInch:
		s.SevenInch = list
	case ScreenshotTenInch:
		s.TenInch = list
	case ScreenshotWear:
		s.Wear = list
	case ScreenshotTV:
		s.TV = list
	}
}

// IsEmpty reports whether no form factor has screenshots.
func (s *Screenshots) IsEmpty() bool {
	if s == nil {
		return true
	}
	return len(s.Phone) == 0 && len(s.SevenInch) == 0 && len(s.TenInch) == 0 &&
		len(s.Wear) == 0 && len(s.TV) == 0
}

// App is AppMetadata together with its localized files.
type App struct {
	AppMetadata

	Icon           LocalizedFile `json:"icon,omitempty" validate:"omitempty,dive"`
	FeatureGraphic LocalizedFile `json:"featureGraphic,omitempty" validate:"omitempty,dive"`
	PromoGraphic   LocalizedFile `json:"promoGraphic,omitempty" validate:"omitempty,dive"`
	TVBanner       LocalizedFile `json:"tvBanner,omitempty" validate:"omitempty,dive"`
	Screenshots    *Screenshots  `json:"screenshots,omitempty" validate:"omitempty"`
}

// FileByType returns the localized file map for a file type.
func (a *App) FileByType(kind string) LocalizedFile {
	switch kind {
	case FileTypeIcon:
		return a.Icon
	case FileTypeFeatureGraphic:
		return a.FeatureGraphic
	case FileTypePromoGraphic:
		return a.PromoGraphic
	case FileTypeTVBanner:
		return a.TVBanner
	default:
		return nil
	}
}

// SetFile stores the localized file map for a file type.
func (a *App) SetFile(kind string, files LocalizedFile) {
	switch kind {
	case FileTypeIcon:
		a.Icon = files
	case FileTypeFeatureGraphic:
		a.FeatureGraphic = files
	case FileTypePromoGraphic:
		a.PromoGraphic = files
	case FileTypeTVBanner:
		a.TVBanner = files
	}
}

// LocalizedFileRow is one stored (type, locale) file of an app.
type LocalizedFileRow struct {
	RepoID      int64
	PackageName string
	Type        string
	Locale      string
	File        File
}

// LocalizedFileListRow is one stored screenshot of an app.
// Order keeps the position within its (type, locale) list.
type LocalizedFileListRow struct {
	RepoID      int64
	PackageName string
	Type        string
	Locale      string
	Order       int
	File        File
}
