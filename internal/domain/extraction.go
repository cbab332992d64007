package domain

// ExtractionOptions are the pipeline switches a caller sends with a submission.
// They are recorded and handed to the extractor, but the mock pipeline does not
// gate any stage on them yet.
type ExtractionOptions struct {
	ExtractText      bool `json:"extractText"`      // collect page text fragments
	DetectCharts     bool `json:"detectCharts"`     // locate and describe charts
	DetectTables     bool `json:"detectTables"`     // locate and transcribe tables
	GenerateInsights bool `json:"generateInsights"` // derive analyst insights from content
	Vectorize        bool `json:"vectorize"`        // chunk and embed content for retrieval
}

// DefaultExtractionOptions returns options with every stage enabled.
func DefaultExtractionOptions() ExtractionOptions {
	return ExtractionOptions{
		ExtractText:      true,
		DetectCharts:     true,
		DetectTables:     true,
		GenerateInsights: true,
		Vectorize:        true,
	}
}

// Table is a tabular block found in the document. Data holds rows of cells,
// header row first.
type Table struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Data  [][]string `json:"data"`
	Page  int        `json:"page"`
}

func (t Table) clone() Table {
	c := t
	c.Data = make([][]string, len(t.Data))
	for i, row := range t.Data {
		c.Data[i] = append([]string{}, row...)
	}
	return c
}

// Chart is a figure found in the document.
type Chart struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	ImageURL string `json:"imageUrl"`
	Page     int    `json:"page"`
}

// Insight is a derived observation with a model confidence in [0, 1].
type Insight struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
}

// ExtractionResult is everything a successful extraction produces.
type ExtractionResult struct {
	Text       []string
	Tables     []Table
	Charts     []Chart
	Insights   []Insight
	Summary    string
	Industry   string
	Vectorized bool
	Chunks     int
}
