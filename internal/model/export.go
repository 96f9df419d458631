package model

// CandidateRecord is the on-disk form of a QuestionCandidate in
// real-exam-{year}.candidate.json. Type-specific fields are pointers so that
// only the ones relevant to the question type are written.
type CandidateRecord struct {
	ID              string       `json:"id"`
	Type            QuestionType `json:"type"`
	Content         string       `json:"content"`
	Explanation     string       `json:"explanation"`
	KnowledgePoints []string     `json:"knowledgePoints"`
	PageNum         int          `json:"page_num"`
	Confidence      float64      `json:"confidence"`
	ParsingNotes    string       `json:"parsing_notes"`

	Options         *[]string `json:"options,omitempty"`
	Answer          *string   `json:"answer,omitempty"`
	AcceptedAnswers *[]string `json:"acceptedAnswers,omitempty"`
	Score           *int      `json:"score,omitempty"`
	Solution        *string   `json:"solution,omitempty"`
}

// BankQuestion is a question in the study app's question-bank format.
type BankQuestion struct {
	ID              string       `json:"id"`
	Type            QuestionType `json:"type"`
	Subject         string       `json:"subject"`
	Difficulty      string       `json:"difficulty"`
	Source          string       `json:"source"`
	CreatedAt       string       `json:"createdAt"`
	KnowledgePoints []string     `json:"knowledgePoints"`
	Explanation     string       `json:"explanation"`
	Question        string       `json:"question"`

	Options         *[]string `json:"options,omitempty"`
	Answer          *string   `json:"answer,omitempty"`
	AcceptedAnswers *[]string `json:"acceptedAnswers,omitempty"`
	Score           *int      `json:"score,omitempty"`
	Solution        *string   `json:"solution,omitempty"`
}

// CompleteBank is the aggregate file the study app imports.
type CompleteBank struct {
	Questions   []BankQuestion `json:"questions"`
	Favorites   []string       `json:"favorites"`
	LastUpdated string         `json:"lastUpdated"`
}

// ToRecord converts a candidate to its on-disk form.
func (c QuestionCandidate) ToRecord() CandidateRecord {
	rec := CandidateRecord{
		ID:              c.ID,
		Type:            c.Type,
		Content:         c.Content,
		Explanation:     c.Explanation,
		KnowledgePoints: nonNil(c.KnowledgePoints),
		PageNum:         c.PageNum,
		Confidence:      c.Confidence,
		ParsingNotes:    c.ParsingNotes,
	}
	answer := c.Answer
	switch c.Type {
	case TypeChoice:
		opts := nonNil(c.Options)
		rec.Options = &opts
		rec.Answer = &answer
	case TypeBlank:
		accepted := nonNil(c.AcceptedAnswers)
		rec.Answer = &answer
		rec.AcceptedAnswers = &accepted
	case TypeSolve:
		score := c.Score
		if score == 0 {
			score = DefaultSolveScore
		}
		solution := c.Solution
		rec.Score = &score
		rec.Answer = &answer
		rec.Solution = &solution
	}
	return rec
}

// Candidate converts a record back to a QuestionCandidate.
func (r CandidateRecord) Candidate() QuestionCandidate {
	c := QuestionCandidate{
		ID:              r.ID,
		Type:            r.Type,
		Content:         r.Content,
		Explanation:     r.Explanation,
		KnowledgePoints: r.KnowledgePoints,
		PageNum:         r.PageNum,
		Confidence:      r.Confidence,
		ParsingNotes:    r.ParsingNotes,
	}
	if r.Options != nil {
		c.Options = *r.Options
	}
	if r.Answer != nil {
		c.Answer = *r.Answer
	}
	if r.AcceptedAnswers != nil {
		c.AcceptedAnswers = *r.AcceptedAnswers
	}
	if r.Score != nil {
		c.Score = *r.Score
	}
	if r.Solution != nil {
		c.Solution = *r.Solution
	}
	return c
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
