// Package geo resolves client IP addresses to an approximate location for
// visitor notifications. Lookups go to a primary provider and then a
// fallback provider; each sits behind its own circuit breaker so an outage
// costs one timeout per breaker interval instead of one per visit.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"spadoc/pkg/logger"
)

// Provider names, also used as circuit breaker names
const (
	SourcePrimary  = "geojs"
	SourceFallback = "ip-api"
	SourceLocal    = "local"
	SourceNone     = "none"
)

const (
	lookupTimeout = 3 * time.Second
	unknown       = "Unknown"
	unknownISP    = "Unknown ISP"
)

// Location is the result of an IP geolocation lookup
type Location struct {
	Label   string `json:"location"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	ISP     string `json:"isp"`
	Coords  string `json:"coords,omitempty"`
	Source  string `json:"source"`
}

// Resolver looks up IP locations
type Resolver struct {
	client    *http.Client
	providers []*provider
	log       *logger.Logger
	onState   func(name string, to gobreaker.State)
}

// Option configures a Resolver
type Option func(*Resolver)

// WithHTTPClient overrides the client used for lookups
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithStateHook is called whenever a provider's breaker changes state
func WithStateHook(fn func(name string, to gobreaker.State)) Option {
	return func(r *Resolver) { r.onState = fn }
}

type provider struct {
	name   string
	urlFmt string
	decode func(body []byte) (Location, error)
	cb     *gobreaker.CircuitBreaker[Location]
}

// NewResolver creates a resolver. primaryURL and fallbackURL are format
// strings with a single %s for the address.
func NewResolver(primaryURL, fallbackURL string, log *logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		client: &http.Client{Timeout: lookupTimeout},
		log:    log.Component("geo"),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.providers = []*provider{
		r.newProvider(SourcePrimary, primaryURL, decodeGeoJS),
		r.newProvider(SourceFallback, fallbackURL, decodeIPAPI),
	}
	return r
}

func (r *Resolver) newProvider(name, urlFmt string, decode func([]byte) (Location, error)) *provider {
	p := &provider{name: name, urlFmt: urlFmt, decode: decode}
	p.cb = gobreaker.NewCircuitBreaker[Location](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.WithFields(map[string]interface{}{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("Geolocation circuit breaker state change")
			if r.onState != nil {
				r.onState(name, to)
			}
		},
	})
	return p
}

// Resolve never fails: private addresses get a local placeholder and a
// lookup that fails everywhere gets an unknown placeholder naming the IP.
func (r *Resolver) Resolve(ctx context.Context, ip string) Location {
	if IsLocal(ip) {
		return LocalLocation()
	}

	for _, p := range r.providers {
		if p.urlFmt == "" {
			continue
		}
		loc, err := p.cb.Execute(func() (Location, error) {
			return r.lookup(ctx, p, ip)
		})
		if err == nil {
			return loc
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.log.WithField("provider", p.name).Debug("Geolocation provider skipped, circuit open")
			continue
		}
		r.log.WithError(err).WithField("provider", p.name).Warn("Geolocation lookup failed")
	}

	return UnknownLocation(ip)
}

func (r *Resolver) lookup(ctx context.Context, p *provider, ip string) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(p.urlFmt, url.PathEscape(ip)), nil)
	if err != nil {
		return Location{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("%s returned status %d", p.name, resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Location{}, fmt.Errorf("decode %s response: %w", p.name, err)
	}
	loc, err := p.decode(raw)
	if err != nil {
		return Location{}, err
	}
	loc.Source = p.name
	return loc, nil
}

type geoJSResponse struct {
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	Organization string `json:"organization"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
}

func decodeGeoJS(body []byte) (Location, error) {
	var g geoJSResponse
	if err := json.Unmarshal(body, &g); err != nil {
		return Location{}, err
	}
	loc := newLocation(g.City, g.Region, g.Country, g.Organization)
	if g.Latitude != "" && g.Longitude != "" {
		loc.Coords = g.Latitude + ", " + g.Longitude
	}
	return loc, nil
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
	Country    string  `json:"country"`
	ISP        string  `json:"isp"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

func decodeIPAPI(body []byte) (Location, error) {
	var a ipAPIResponse
	if err := json.Unmarshal(body, &a); err != nil {
		return Location{}, err
	}
	if a.Status != "success" {
		return Location{}, fmt.Errorf("ip-api status %q", a.Status)
	}
	loc := newLocation(a.City, a.RegionName, a.Country, a.ISP)
	if a.Lat != 0 && a.Lon != 0 {
		loc.Coords = fmt.Sprintf("%g, %g", a.Lat, a.Lon)
	}
	return loc, nil
}

func newLocation(city, region, country, isp string) Location {
	city, region, country = orUnknown(city), orUnknown(region), orUnknown(country)
	if strings.TrimSpace(isp) == "" {
		isp = unknownISP
	}
	return Location{
		Label:   fmt.Sprintf("%s, %s, %s", city, region, country),
		City:    city,
		Region:  region,
		Country: country,
		ISP:     isp,
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}

// IsLocal reports whether ip is empty, unparseable, loopback, private or
// link-local. Such addresses are never sent to a lookup provider.
func IsLocal(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return true
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}

// LocalLocation is the placeholder for private network visitors
func LocalLocation() Location {
	return Location{
		Label:   "Local/Private Network",
		City:    "Local",
		Region:  "Private",
		Country: "Network",
		ISP:     "Local Network",
		Source:  SourceLocal,
	}
}

// UnknownLocation is the placeholder when every provider failed
func UnknownLocation(ip string) Location {
	return Location{
		Label:   ip + " (Location lookup failed)",
		City:    unknown,
		Region:  unknown,
		Country: unknown,
		ISP:     unknownISP,
		Source:  SourceNone,
	}
}
