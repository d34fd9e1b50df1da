package server

import "github.com/gogpu/kerf"

// reportResponse is the JSON body of /api/contours.
type reportResponse struct {
	RequestID   string            `json:"request_id"`
	Amount      float64           `json:"amount"`
	Segments    int               `json:"segments"`
	Closed      int               `json:"closed"`
	Open        int               `json:"open"`
	Annotations int               `json:"annotations"`
	Offset      int               `json:"offset"`
	Fallback    int               `json:"fallback"`
	Dropped     int               `json:"dropped"`
	Contours    []contourResponse `json:"contours"`
	Skipped     []issueResponse   `json:"skipped"`
	Failures    []issueResponse   `json:"failures"`
}

type contourResponse struct {
	Index    int     `json:"index"`
	Segments int     `json:"segments"`
	Closed   bool    `json:"closed"`
	Length   float64 `json:"length"`
}

// issueResponse is a skipped segment or a failed contour.
type issueResponse struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

func newReportResponse(id string, amount float64, res *kerf.Result) reportResponse {
	r := res.Report
	out := reportResponse{
		RequestID:   id,
		Amount:      amount,
		Segments:    r.Segments,
		Closed:      r.Closed,
		Open:        r.Open,
		Annotations: r.Annotations,
		Offset:      r.Offset,
		Fallback:    r.Fallback,
		Dropped:     r.Dropped,
		Contours:    make([]contourResponse, len(res.Original)),
		Skipped:     make([]issueResponse, len(r.Skipped)),
		Failures:    make([]issueResponse, len(r.Failures)),
	}
	for i, c := range res.Original {
		out.Contours[i] = contourResponse{
			Index:    i,
			Segments: c.Len(),
			Closed:   c.IsClosed(),
			Length:   c.Length(),
		}
	}
	for i, s := range r.Skipped {
		out.Skipped[i] = issueResponse{Index: s.Index, Error: s.Err.Error()}
	}
	for i, f := range r.Failures {
		out.Failures[i] = issueResponse{Index: f.Contour, Error: f.Err.Error()}
	}
	return out
}
