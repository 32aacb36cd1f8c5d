package pipeline

// Envelope is the only shape returned to callers of the question endpoint.
type Envelope struct {
	Success  bool   `json:"success"`
	Question string `json:"question,omitempty"`
	SQL      string `json:"sql,omitempty"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

func NewEnvelope(a Answer, err error) Envelope {
	if err != nil {
		return Envelope{Success: false, Error: UserMessage(err)}
	}
	return Envelope{Success: true, Question: a.Question, SQL: a.SQL, Result: a.Result}
}
