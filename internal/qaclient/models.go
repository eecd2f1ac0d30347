package qaclient

// Document is the descriptor the backend returns for an uploaded PDF.
type Document struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	FilePath   string `json:"file_path"`
	UploadTime string `json:"upload_time"` // server-reported, kept verbatim
}

type Answer struct {
	Answer string `json:"answer"`
}

type Summary struct {
	Summary string `json:"summary"`
}

// QAPair is one past question/answer exchange for a document.
type QAPair struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	CreatedAt  string `json:"created_at"`
}

type askRequest struct {
	DocumentID int64  `json:"document_id"`
	Question   string `json:"question"`
}

// uploadResponse accepts both a bare descriptor and one wrapped in "document".
type uploadResponse struct {
	Document
	Wrapped *Document `json:"document"`
}

func (r uploadResponse) descriptor() Document {
	if r.Wrapped != nil && r.Wrapped.ID != 0 {
		return *r.Wrapped
	}
	return r.Document
}
