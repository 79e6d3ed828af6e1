package cvision

// Response is the body returned by images:annotate (or written by the
// asynchronous batch API), restricted to the fields used here.
type Response struct {
	Responses []AnnotateImageResponse `json:"responses"`
}

type AnnotateImageResponse struct {
	FullTextAnnotation *TextAnnotation `json:"fullTextAnnotation"`
	Error              *Status         `json:"error,omitempty"`
}

type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type TextAnnotation struct {
	Pages []Page `json:"pages"`
	Text  string `json:"text"`
}

type Page struct {
	Property   *TextProperty `json:"property,omitempty"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Blocks     []Block       `json:"blocks"`
	Confidence float64       `json:"confidence"`
}

type Block struct {
	Property    *TextProperty `json:"property,omitempty"`
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Paragraphs  []Paragraph   `json:"paragraphs"`
	BlockType   string        `json:"blockType"`
	Confidence  float64       `json:"confidence"`
}

type Paragraph struct {
	Property    *TextProperty `json:"property,omitempty"`
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Words       []Word        `json:"words"`
	Confidence  float64       `json:"confidence"`
}

type Word struct {
	Property    *TextProperty `json:"property,omitempty"`
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Symbols     []Symbol      `json:"symbols"`
	Confidence  float64       `json:"confidence"`
}

type Symbol struct {
	Property    *TextProperty `json:"property,omitempty"`
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Text        string        `json:"text"`
	Confidence  float64       `json:"confidence"`
}

type TextProperty struct {
	DetectedLanguages []DetectedLanguage `json:"detectedLanguages,omitempty"`
	DetectedBreak     *DetectedBreak     `json:"detectedBreak,omitempty"`
}

type DetectedLanguage struct {
	LanguageCode string  `json:"languageCode"`
	Confidence   float64 `json:"confidence"`
}

// Break types reported in DetectedBreak.Type.
const (
	BreakUnknown      = "UNKNOWN"
	BreakSpace        = "SPACE"
	BreakSureSpace    = "SURE_SPACE"
	BreakEOLSureSpace = "EOL_SURE_SPACE"
	BreakHyphen       = "HYPHEN"
	BreakLineBreak    = "LINE_BREAK"
)

type DetectedBreak struct {
	Type     string `json:"type"`
	IsPrefix bool   `json:"isPrefix,omitempty"`
}

// BoundingPoly vertices are in pixels. Coordinates equal to zero are
// omitted from the JSON.
type BoundingPoly struct {
	Vertices []Vertex `json:"vertices"`
}

type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}
