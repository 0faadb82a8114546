package commands

import (
	"strconv"

	"github.com/GnRlLeclerc/STOI/pkg/cli"
	"github.com/GnRlLeclerc/STOI/pkg/stoi"
)

// pairScore is the reported outcome of one scored pair or channel.
type pairScore struct {
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	Reference string      `json:"reference,omitempty" yaml:"reference,omitempty"`
	Degraded  string      `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Channel   int         `json:"channel" yaml:"channel"` // -1 for the mono mix
	Mode      string      `json:"mode,omitempty" yaml:"mode,omitempty"`
	Status    stoi.Status `json:"status,omitempty" yaml:"status,omitempty"`
	Score     float64     `json:"score" yaml:"score"`
	Frames    int         `json:"frames" yaml:"frames"`
	Segments  int         `json:"segments" yaml:"segments"`
	Units     int         `json:"units" yaml:"units"`
	Skipped   int         `json:"skipped" yaml:"skipped"`
	Cached    bool        `json:"cached,omitempty" yaml:"cached,omitempty"`
	Error     string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// newPairScore reports r, substituting sentinel for unmeasured scores.
func newPairScore(r stoi.Result, sentinel float64, cached bool) pairScore {
	return pairScore{
		Mode:     r.Mode,
		Status:   r.Status,
		Score:    r.ScoreOr(sentinel),
		Frames:   r.Frames,
		Segments: r.Segments,
		Units:    r.Units,
		Skipped:  r.Skipped,
		Cached:   cached,
	}
}

func (p pairScore) label() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Channel < 0 {
		return "mix"
	}
	return "ch" + strconv.Itoa(p.Channel)
}

func (p pairScore) row() []string {
	note := ""
	switch {
	case p.Error != "":
		note = "error: " + p.Error
	case p.Cached:
		note = "cached"
	}
	score := ""
	if p.Error == "" {
		score = cli.FormatScore(p.Score, p.Status == stoi.StatusOK, string(p.Status))
	}
	return []string{
		p.label(),
		p.Mode,
		string(p.Status),
		score,
		strconv.Itoa(p.Units),
		note,
	}
}

var scoreHeaders = []string{"PAIR", "MODE", "STATUS", "SCORE", "UNITS", "NOTE"}

// scoreReport is the output of the score command.
type scoreReport struct {
	Reference  string      `json:"reference" yaml:"reference"`
	Degraded   string      `json:"degraded" yaml:"degraded"`
	SampleRate int         `json:"sample_rate" yaml:"sample_rate"`
	Results    []pairScore `json:"results" yaml:"results"`
}

func (r *scoreReport) TableHeaders() []string { return scoreHeaders }

func (r *scoreReport) TableRows() [][]string {
	rows := make([][]string, len(r.Results))
	for i, p := range r.Results {
		rows[i] = p.row()
	}
	return rows
}
