package speechkit

import "strings"

// SyncResponse is the body returned by the short-audio endpoint
type SyncResponse struct {
	Result       string `json:"result"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// RecognitionRequest starts a long-running recognition
type RecognitionRequest struct {
	Config RecognitionConfig `json:"config"`
	Audio  AudioSource       `json:"audio"`
}

type RecognitionConfig struct {
	Specification Specification `json:"specification"`
}

type Specification struct {
	LanguageCode      string `json:"languageCode"`
	Model             string `json:"model"`
	AudioEncoding     string `json:"audioEncoding"`
	SampleRateHertz   int    `json:"sampleRateHertz"`
	AudioChannelCount int    `json:"audioChannelCount"`
	ProfanityFilter   bool   `json:"profanityFilter"`
	LiteratureText    bool   `json:"literatureText"`
	RawResults        bool   `json:"rawResults"`
}

type AudioSource struct {
	URI string `json:"uri"`
}

// OperationResponse is a Yandex Cloud operation
type OperationResponse struct {
	ID       string             `json:"id"`
	Done     bool               `json:"done"`
	Response *RecognitionResult `json:"response,omitempty"`
	Error    *OperationError    `json:"error,omitempty"`
}

type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type RecognitionResult struct {
	Chunks []Chunk `json:"chunks"`
}

type Chunk struct {
	Alternatives []Alternative `json:"alternatives"`
	ChannelTag   string        `json:"channelTag,omitempty"`
}

type Alternative struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Text joins the best alternative of every chunk
func (r *RecognitionResult) Text() string {
	parts := make([]string, 0, len(r.Chunks))
	for _, chunk := range r.Chunks {
		if len(chunk.Alternatives) == 0 {
			continue
		}
		if t := chunk.Alternatives[0].Text; t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
