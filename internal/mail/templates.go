// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
)

// Email is a rendered message ready for a Transport.
type Email struct {
	Kind     Kind
	To       string
	Subject  string
	BodyHTML string
	BodyText string
	// Link is the primary call to action, if any.
	Link string
}

const (
	subjectVerification = "Verify your Breaking Cycles account"
	subjectWelcome      = "Welcome to Breaking Cycles!"
)

const verificationHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
.content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
.button { display: inline-block; background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 25px; margin: 20px 0; }
.footer { text-align: center; margin-top: 20px; color: #666; font-size: 14px; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>Welcome to Breaking Cycles!</h1></div>
  <div class="content">
    <h2>Hi {{.Name}}!</h2>
    <p>Thank you for joining our community of women breaking cycles of poverty through education.</p>
    <p>To complete your registration, please verify your email address:</p>
    <div style="text-align: center;"><a href="{{.Link}}" class="button">Verify Email Address</a></div>
    <p>This link will expire in {{.ExpiresIn}}.</p>
    <p>If you didn't create this account, please ignore this email.</p>
  </div>
  <div class="footer"><p>Breaking Cycles - Empowering Women Through Education</p></div>
</div>
</body>
</html>
`

const verificationText = `Hi {{.Name}}!

Thank you for joining Breaking Cycles.

Verify your email address by opening this link:
{{.Link}}

This link will expire in {{.ExpiresIn}}. If you didn't create this account, please ignore this email.
`

const welcomeHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center;">
    <h1>Welcome to Breaking Cycles!</h1>
  </div>
  <div style="padding: 30px; background: #f9f9f9;">
    <h2>Hi {{.Name}}!</h2>
    <p>Your email has been verified successfully! You're now part of our community.</p>
    <p>Here's what you can do next:</p>
    <ul>
      <li>Explore our courses in Financial Literacy, Coding, Entrepreneurship, and Beauty</li>
      <li>Join our supportive chat communities</li>
      <li>Read inspiring success stories</li>
      <li>Set your learning goals</li>
    </ul>
    <p><a href="{{.Link}}">Open Breaking Cycles</a></p>
  </div>
</div>
`

const welcomeText = `Hi {{.Name}}!

Your email has been verified successfully! You're now part of our community.

Explore courses, join the chat rooms and set your learning goals at {{.Link}}
`

type templatePair struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

type templateData struct {
	Name      string
	Link      string
	ExpiresIn string
}

// Renderer turns envelopes into emails.
type Renderer struct {
	frontendURL string
	expiresIn   string
	templates   map[Kind]templatePair
}

// NewRenderer parses the built-in templates. frontendURL is the base of
// every link; expiresIn is the human readable verification lifetime.
func NewRenderer(frontendURL, expiresIn string) (*Renderer, error) {
	base := strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid frontend URL %q: %w", frontendURL, err)
	}
	if expiresIn == "" {
		expiresIn = "24 hours"
	}

	r := &Renderer{
		frontendURL: base,
		expiresIn:   expiresIn,
		templates:   make(map[Kind]templatePair, 2),
	}
	sources := []struct {
		kind       Kind
		subject    string
		html, text string
	}{
		{KindVerification, subjectVerification, verificationHTML, verificationText},
		{KindWelcome, subjectWelcome, welcomeHTML, welcomeText},
	}
	for _, src := range sources {
		h, err := htmltemplate.New(string(src.kind) + ".html").Parse(src.html)
		if err != nil {
			return nil, fmt.Errorf("parse %s html template: %w", src.kind, err)
		}
		t, err := texttemplate.New(string(src.kind) + ".txt").Parse(src.text)
		if err != nil {
			return nil, fmt.Errorf("parse %s text template: %w", src.kind, err)
		}
		r.templates[src.kind] = templatePair{subject: src.subject, html: h, text: t}
	}
	return r, nil
}

// VerificationURL is the frontend page that confirms token.
func (r *Renderer) VerificationURL(token string) string {
	return r.frontendURL + "/verify-email?token=" + url.QueryEscape(token)
}

// Render builds the email for env.
func (r *Renderer) Render(env Envelope) (*Email, error) {
	pair, ok := r.templates[env.Kind]
	if !ok {
		return nil, fmt.Errorf("no template for mail kind %q", env.Kind)
	}

	data := templateData{Name: env.Name, Link: r.frontendURL, ExpiresIn: r.expiresIn}
	if data.Name == "" {
		data.Name = "there"
	}
	if env.Kind == KindVerification {
		data.Link = r.VerificationURL(env.Token)
	}

	var html, text bytes.Buffer
	if err := pair.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", env.Kind, err)
	}
	if err := pair.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", env.Kind, err)
	}

	return &Email{
		Kind:     env.Kind,
		To:       env.To,
		Subject:  pair.subject,
		BodyHTML: html.String(),
		BodyText: text.String(),
		Link:     data.Link,
	}, nil
}
