package main

import (
	"fmt"
	"net/url"
	"strings"
)

// Strategy selects how the bearer token is obtained. Each strategy carries
// its own scopes and resource path so the two can never be mixed.
type Strategy int

const (
	// StrategyInteractive is the authorization-code flow: the user signs in
	// through the browser and the token acts on their behalf.
	StrategyInteractive Strategy = iota
	// StrategyService is the client-credentials flow: the application
	// authenticates as itself and must name the target user explicitly.
	StrategyService
)

const (
	graphDefaultScope = "https://graph.microsoft.com/.default"
	userPlaceholder   = "{user}"
)

type strategyProfile struct {
	Name   string
	Scopes []string
	// ResourcePath is relative to the Graph base URL and may contain
	// userPlaceholder.
	ResourcePath string
}

var strategyProfiles = map[Strategy]strategyProfile{
	StrategyInteractive: {
		Name:         "interactive",
		Scopes:       []string{"Notes.Read.All"},
		ResourcePath: "/me/onenote/notebooks",
	},
	StrategyService: {
		Name:         "service",
		Scopes:       []string{graphDefaultScope},
		ResourcePath: "/users/" + userPlaceholder + "/onenote/notebooks",
	},
}

// ParseStrategy accepts the strategy names plus the OAuth grant names as
// aliases.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "interactive", "code", "authorization_code":
		return StrategyInteractive, nil
	case "service", "client_credentials", "app":
		return StrategyService, nil
	}
	return 0, fmt.Errorf("unknown auth flow %q (want interactive or service)", s)
}

func (s Strategy) String() string {
	if p, ok := strategyProfiles[s]; ok {
		return p.Name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

func (s Strategy) profile() strategyProfile {
	p, ok := strategyProfiles[s]
	if !ok {
		panic(fmt.Sprintf("no profile for %v", s))
	}
	return p
}

// Scopes returns a copy of the scopes requested for s.
func (s Strategy) Scopes() []string {
	return append([]string(nil), s.profile().Scopes...)
}

// ResourceURL builds the notebooks URL for s under graphBaseURL. The user is
// only used by strategies whose path names one.
func (s Strategy) ResourceURL(graphBaseURL, user string) (string, error) {
	path := s.profile().ResourcePath
	if strings.Contains(path, userPlaceholder) {
		if strings.TrimSpace(user) == "" {
			return "", fmt.Errorf("%s flow needs a target user", s)
		}
		path = strings.ReplaceAll(path, userPlaceholder, url.PathEscape(user))
	}
	return strings.TrimRight(graphBaseURL, "/") + path, nil
}
