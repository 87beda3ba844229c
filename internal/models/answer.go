package models

type AnswerMethod string

const (
	MethodVectorSearch AnswerMethod = "vector_search"
	MethodGeneralChat  AnswerMethod = "general_chat"
)

// Answer is the result of an answer request. Sources holds deduplicated
// URLs of the documents that contributed context; Confidence is the score
// of the best match, 0 when nothing relevant was found.
type Answer struct {
	Text       string       `json:"answer"`
	Sources    []string     `json:"sources"`
	Confidence float64      `json:"confidence"`
	Method     AnswerMethod `json:"method"`
}
