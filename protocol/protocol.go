// Package protocol encodes the differences between the two Microsoft API
// dialects supported by this SDK: Microsoft Graph and the legacy Office 365
// REST API.
//
// A Protocol knows the base service URL, the casing convention used by the
// dialect's JSON keywords (lowerCamelCase for Graph, PascalCase for Office
// 365), the OAuth scope prefix, the preferred timezone and a small table of
// dialect-specific OData type names.
package protocol

import (
	"fmt"
	"strings"
	"time"
)

// Resource names understood by every dialect.
const (
	MeResource    = "me"
	UsersResource = "users"
)

// Keyword names resolvable through Protocol.Keyword.
const (
	KeywordMessageType        = "message_type"
	KeywordEventMessageType   = "event_message_type"
	KeywordFileAttachmentType = "file_attachment_type"
	KeywordItemAttachmentType = "item_attachment_type"
)

// Protocol describes one API dialect.
type Protocol struct {
	// ServiceURL is the versioned base URL, always ending in a slash,
	// e.g. "https://graph.microsoft.com/v1.0/".
	ServiceURL string
	// APIVersion is the version segment of ServiceURL, e.g. "v1.0".
	APIVersion string
	// DefaultResource is used when a component does not specify one.
	DefaultResource string
	// ScopePrefix is prepended to short scope names, e.g.
	// "https://graph.microsoft.com/".
	ScopePrefix string
	// Timezone is the preferred timezone for dateTimeTimeZone resources.
	Timezone *time.Location
	// MaxTop is the maximum accepted value for the $top query parameter.
	MaxTop int

	casing        CaseFunc
	defaultCasing bool
	serviceBase   string
	keywords      map[string]string
	scopeSets     map[string][]scope
}

// Option configures a Protocol constructor.
type Option func(*Protocol)

// WithAPIVersion overrides the dialect's default API version.
func WithAPIVersion(version string) Option {
	return func(p *Protocol) { p.APIVersion = version }
}

// WithDefaultResource sets the resource used when none is given,
// e.g. "me" or "users/someone@example.com".
func WithDefaultResource(resource string) Option {
	return func(p *Protocol) { p.DefaultResource = resource }
}

// WithTimezone sets the preferred timezone.
func WithTimezone(loc *time.Location) Option {
	return func(p *Protocol) {
		if loc != nil {
			p.Timezone = loc
		}
	}
}

// WithServiceBase overrides the service host, for national cloud
// deployments such as "https://graph.microsoft.us".
func WithServiceBase(base string) Option {
	return func(p *Protocol) {
		p.serviceBase = strings.TrimRight(base, "/")
	}
}

// WithCasing overrides the dialect's keyword casing function.
func WithCasing(fn CaseFunc) Option {
	return func(p *Protocol) {
		if fn != nil {
			p.casing = fn
			p.defaultCasing = false
		}
	}
}

// MSGraph returns the Microsoft Graph dialect.
// Graph keywords use lowerCamelCase, which is also the casing this SDK
// uses internally, so no conversion is applied.
func MSGraph(opts ...Option) *Protocol {
	p := &Protocol{
		APIVersion:      "v1.0",
		DefaultResource: MeResource,
		ScopePrefix:     "https://graph.microsoft.com/",
		Timezone:        time.Local,
		MaxTop:          999,
		casing:          ToCamelCase,
		defaultCasing:   true,
		keywords: map[string]string{
			KeywordMessageType:        "microsoft.graph.message",
			KeywordEventMessageType:   "microsoft.graph.eventMessage",
			KeywordFileAttachmentType: "#microsoft.graph.fileAttachment",
			KeywordItemAttachmentType: "#microsoft.graph.itemAttachment",
		},
		scopeSets: defaultScopeSets,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.serviceBase == "" {
		p.serviceBase = "https://graph.microsoft.com"
	}
	p.ServiceURL = fmt.Sprintf("%s/%s/", p.serviceBase, p.APIVersion)
	return p
}

// MSOffice365 returns the legacy Office 365 REST API dialect.
// Office 365 keywords use PascalCase.
func MSOffice365(opts ...Option) *Protocol {
	p := &Protocol{
		APIVersion:      "v2.0",
		DefaultResource: MeResource,
		ScopePrefix:     "https://outlook.office.com/",
		Timezone:        time.Local,
		MaxTop:          999,
		casing:          ToPascalCase,
		keywords: map[string]string{
			KeywordMessageType:        "Microsoft.OutlookServices.Message",
			KeywordEventMessageType:   "Microsoft.OutlookServices.EventMessage",
			KeywordFileAttachmentType: "#Microsoft.OutlookServices.FileAttachment",
			KeywordItemAttachmentType: "#Microsoft.OutlookServices.ItemAttachment",
		},
		scopeSets: defaultScopeSets,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.serviceBase == "" {
		p.serviceBase = "https://outlook.office.com/api"
	}
	p.ServiceURL = fmt.Sprintf("%s/%s/", p.serviceBase, p.APIVersion)
	return p
}

// ConvertCase converts an API keyword into this dialect's casing.
// The Graph dialect is a no-op since the SDK already writes keywords in
// lowerCamelCase.
func (p *Protocol) ConvertCase(key string) string {
	if p.defaultCasing {
		return key
	}
	return p.casing(key)
}

// Keyword returns the dialect-specific value for a keyword name, or empty
// string when the dialect does not define it.
func (p *Protocol) Keyword(name string) string {
	return p.keywords[name]
}

// ScopesFor expands scope helper names (e.g. "mailbox", "calendar_all") into
// the dialect's fully prefixed scopes. Names that are not known helpers pass
// through untouched, so raw scopes can be mixed in. With no arguments, every
// known helper is expanded. The result preserves order and is de-duplicated.
func (p *Protocol) ScopesFor(names ...string) []string {
	if len(names) == 0 {
		names = scopeSetNames
	}

	seen := make(map[string]struct{})
	var scopes []string
	add := func(s string) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			scopes = append(scopes, s)
		}
	}

	for _, name := range names {
		set, ok := p.scopeSets[name]
		if !ok {
			// Raw scope, never prefixed.
			add(name)
			continue
		}
		for _, sc := range set {
			add(p.prefixScope(sc))
		}
	}
	return scopes
}

// prefixScope inserts the dialect scope prefix unless the scope is reserved
// (offline_access and friends) or already prefixed.
func (p *Protocol) prefixScope(sc scope) string {
	if sc.reserved || p.ScopePrefix == "" {
		return sc.name
	}
	if strings.HasPrefix(sc.name, p.ScopePrefix) {
		return sc.name
	}
	return p.ScopePrefix + sc.name
}
