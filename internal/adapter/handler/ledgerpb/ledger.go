// Package ledgerpb holds the wire types, service descriptor and client of
// the laventory.v1.Ledger gRPC service. Messages travel as JSON.
package ledgerpb

type Item struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
}

type Detection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Recipe struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

type ListRequest struct {
	Query string `json:"query,omitempty"`
}

type AddRequest struct {
	Name string `json:"name"`
	// Quantity defaults to 1 when unset.
	Quantity *int32 `json:"quantity,omitempty"`
}

type RemoveRequest struct {
	Name string `json:"name"`
}

type InventoryReply struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message,omitempty"`
	ErrorKind string  `json:"error_kind,omitempty"`
	Items     []*Item `json:"items,omitempty"`
}

type DetectRequest struct {
	Image    []byte `json:"image"`
	MimeType string `json:"mime_type,omitempty"`
	Add      bool   `json:"add,omitempty"`
}

type DetectReply struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	ErrorKind  string       `json:"error_kind,omitempty"`
	Detections []*Detection `json:"detections,omitempty"`
	Added      *Detection   `json:"added,omitempty"`
	Items      []*Item      `json:"items,omitempty"`
}

type RecipeRequest struct {
	Ingredients []string `json:"ingredients"`
}

type RecipeReply struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message,omitempty"`
	ErrorKind string  `json:"error_kind,omitempty"`
	Recipe    *Recipe `json:"recipe,omitempty"`
}

func (r *InventoryReply) GetErrorKind() string {
	if r == nil {
		return ""
	}
	return r.ErrorKind
}

func (r *DetectReply) GetErrorKind() string {
	if r == nil {
		return ""
	}
	return r.ErrorKind
}

func (r *RecipeReply) GetErrorKind() string {
	if r == nil {
		return ""
	}
	return r.ErrorKind
}
