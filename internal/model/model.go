package model

import "math"

// QuestionType is the kind of an exam question.
type QuestionType string

const (
	// TypeChoice is a multiple-choice question with (A)-(D) options.
	TypeChoice QuestionType = "choice"
	// TypeBlank is a fill-in-the-blank question.
	TypeBlank QuestionType = "blank"
	// TypeSolve is a free-response question.
	TypeSolve QuestionType = "solve"
	// TypeUnclassified marks a block that matched no marker under strict classification.
	TypeUnclassified QuestionType = "unclassified"
)

// Prefix returns the short id prefix for the type.
func (t QuestionType) Prefix() string {
	switch t {
	case TypeChoice:
		return "c"
	case TypeBlank:
		return "b"
	case TypeSolve:
		return "s"
	default:
		return "u"
	}
}

// Valid reports whether t is one of the exportable question types.
func (t QuestionType) Valid() bool {
	return t == TypeChoice || t == TypeBlank || t == TypeSolve
}

// Evidence records which rule decided a block's type.
type Evidence string

const (
	EvidenceOptions Evidence = "options"
	EvidenceBlank   Evidence = "blank-marker"
	EvidenceKeyword Evidence = "keyword"
	EvidenceScore   Evidence = "score-marker"
	EvidenceDefault Evidence = "default"
)

// BaseConfidence is the confidence every new candidate starts with.
const BaseConfidence = 0.5

// DefaultSolveScore is exported when no score marker was found on a solve question.
const DefaultSolveScore = 10

// QuestionCandidate is one detected exam question awaiting human review.
// Only the fields relevant to Type are populated.
type QuestionCandidate struct {
	ID              string
	Type            QuestionType
	Content         string
	Options         []string
	Answer          string
	AcceptedAnswers []string
	Score           int // 0 means no score marker was found
	Solution        string
	Explanation     string
	KnowledgePoints []string
	PageNum         int
	Confidence      float64
	ParsingNotes    string
	Evidence        Evidence

	knowledgeBoosted bool
}

// SetKnowledgePoints stores the inferred topic tags and raises confidence by
// bump the first time a non-empty set is applied.
func (c *QuestionCandidate) SetKnowledgePoints(points []string, bump float64) {
	c.KnowledgePoints = points
	if len(points) == 0 || c.knowledgeBoosted {
		return
	}
	c.Confidence = math.Min(1, c.Confidence+bump)
	c.knowledgeBoosted = true
}

// ExtractMethod says how a page's text was obtained.
type ExtractMethod string

const (
	MethodText      ExtractMethod = "text"
	MethodOCR       ExtractMethod = "ocr"
	MethodOCRFailed ExtractMethod = "ocr-failed"
)

// Page is the text of one document page.
type Page struct {
	Number int
	Text   string
	Method ExtractMethod
	OCRErr error // set when Method is MethodOCRFailed
}

// PageImage is a raster image of a page handed to a text recognizer.
type PageImage struct {
	PageNr int
	MIME   string
	Data   []byte
}

// SourceKind tells the importer how to treat a document.
type SourceKind string

const (
	KindYear       SourceKind = "year"
	KindCollection SourceKind = "collection"
	KindAnswers    SourceKind = "answers"
)

// Source maps a document file name to the year or collection it holds.
type Source struct {
	File string     `mapstructure:"file" json:"file"`
	Year int        `mapstructure:"year" json:"year,omitempty"`
	Kind SourceKind `mapstructure:"kind" json:"kind,omitempty"`
}

// DefaultSources is the file table used when no sources are configured.
var DefaultSources = []Source{
	{File: "2026年考研数学一真题及参考答案.pdf", Year: 2026, Kind: KindYear},
	{File: "2025考研数学（一）真题试卷及解析详细版.pdf", Year: 2025, Kind: KindYear},
	{File: "2024年考研数学一真题及答案.pdf", Year: 2024, Kind: KindYear},
	{File: "2023年考研数学一试题.pdf", Year: 2023, Kind: KindYear},
	{File: "2023年考研数学一参考答案及解析.pdf", Year: 2023, Kind: KindYear},
	{File: "1987-2022数一真题合集.pdf", Kind: KindCollection},
	{File: "1987-2022数一答案.pdf", Kind: KindAnswers},
}
