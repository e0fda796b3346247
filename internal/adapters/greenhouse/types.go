package greenhouse

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/target/interview-reminder/internal/domain/model"
)

type timeSlot struct {
	DateTime *time.Time `json:"date_time"`
	Date     string     `json:"date"`
}

type interviewer struct {
	ID    json.Number `json:"id"`
	Name  string      `json:"name"`
	Email *string     `json:"email"`
}

type scheduledInterview struct {
	ID            json.Number `json:"id"`
	ApplicationID json.Number `json:"application_id"`
	Start         timeSlot    `json:"start"`
	End           timeSlot    `json:"end"`
	Location      *string     `json:"location"`
	Status        string      `json:"status"`
	Interview     *struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"interview"`
	// Harvest occasionally returns null interviewer entries.
	Interviewers []*interviewer `json:"interviewers"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (s scheduledInterview) toModel(participants []string) model.InterviewSnapshot {
	snap := model.InterviewSnapshot{
		ID:            model.InterviewID(s.ID.String()),
		Status:        model.ParseInterviewStatus(s.Status),
		ApplicationID: s.ApplicationID.String(),
		Participants:  participants,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Start.DateTime != nil {
		snap.StartTime = *s.Start.DateTime
	}
	if s.End.DateTime != nil {
		snap.EndTime = *s.End.DateTime
	}
	if s.Location != nil {
		snap.Location = strings.TrimSpace(*s.Location)
	}
	if s.Interview != nil {
		snap.Name = strings.TrimSpace(s.Interview.Name)
	}
	for _, iv := range s.Interviewers {
		if iv == nil || iv.Email == nil || strings.TrimSpace(*iv.Email) == "" {
			continue
		}
		snap.Interviewers = append(snap.Interviewers, model.Interviewer{
			ID:    iv.ID.String(),
			Name:  strings.TrimSpace(iv.Name),
			Email: strings.ToLower(strings.TrimSpace(*iv.Email)),
		})
	}
	return model.NewInterviewSnapshot(snap)
}

type application struct {
	ID          json.Number `json:"id"`
	CandidateID json.Number `json:"candidate_id"`
	Jobs        []struct {
		Name string `json:"name"`
	} `json:"jobs"`
}

func (a application) toModel() model.Application {
	out := model.Application{ID: a.ID.String(), CandidateID: a.CandidateID.String()}
	for _, j := range a.Jobs {
		if name := strings.TrimSpace(j.Name); name != "" {
			out.Jobs = append(out.Jobs, name)
		}
	}
	return out
}

type candidate struct {
	ID        json.Number `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Company   *string     `json:"company"`
	Title     *string     `json:"title"`
}

func (c candidate) toModel() model.Candidate {
	out := model.Candidate{ID: c.ID.String(), FirstName: c.FirstName, LastName: c.LastName}
	if c.Company != nil {
		out.Company = *c.Company
	}
	if c.Title != nil {
		out.Title = *c.Title
	}
	return out
}

// nextLink extracts the rel="next" target from an RFC 8288 Link header.
func nextLink(header string) string {
	for part := range strings.SplitSeq(header, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		target := strings.TrimSpace(segs[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, p := range segs[1:] {
			p = strings.ReplaceAll(strings.TrimSpace(p), " ", "")
			if p == `rel="next"` || p == "rel=next" {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}
