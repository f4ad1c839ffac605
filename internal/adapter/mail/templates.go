package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/arturoeanton/codechat/internal/domain"
)

var (
	readyTemplate = template.Must(template.New("ready").Parse(
		`The repository <a href="{{.SourceURL}}">{{.SourceURL}}</a> has been analyzed. ` +
			`You can chat with it at <a href="{{.Link}}">{{.Link}}</a>.`))

	emptyTemplate = template.Must(template.New("empty").Parse(
		`The repository &lt;{{.SourceURL}}&gt; has been analyzed. ` +
			`Since it doesn't contain any text files, we couldn't process it at the moment. ` +
			`Please try again with a different repository.`))
)

const (
	readySubject = "Your repo is ready for a chat!"
	emptySubject = "Analysis of your repository"
)

type templateData struct {
	SourceURL string
	Link      string
}

// Render returns the subject and HTML body for an outcome. link is the
// record's explain page and is only used for a successful run.
func Render(outcome domain.Outcome, sourceURL, link string) (string, string, error) {
	var (
		subject string
		tmpl    *template.Template
	)
	switch outcome {
	case domain.OutcomeSucceeded:
		subject, tmpl = readySubject, readyTemplate
	case domain.OutcomeEmptyRepository:
		subject, tmpl = emptySubject, emptyTemplate
	default:
		return "", "", fmt.Errorf("unknown outcome %q", outcome)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{SourceURL: sourceURL, Link: link}); err != nil {
		return "", "", fmt.Errorf("render %s: %w", outcome, err)
	}
	return subject, buf.String(), nil
}
