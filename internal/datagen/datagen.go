// File: internal/datagen/datagen.go

// Package datagen produces randomized but realistic test data. A Generator
// is deterministic for a given seed, so failing tests can be replayed.
package datagen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var (
	firstNames = []string{
		"Alice", "Bob", "Carmen", "Derek", "Elena", "Felix", "Grace", "Hugo",
		"Ingrid", "Jonas", "Kira", "Lucas", "Mona", "Nils", "Olivia", "Pavel",
	}
	lastNames = []string{
		"Anderson", "Berg", "Castillo", "Dahl", "Eriksen", "Fischer", "Garcia",
		"Hansen", "Ito", "Jensen", "Kowalski", "Larsen", "Meyer", "Nguyen",
	}
	streets = []string{
		"Oak Street", "Maple Avenue", "Pine Road", "Cedar Lane", "Elm Drive",
		"Birch Boulevard", "Willow Way", "Aspen Court",
	}
	cities = []string{
		"Springfield", "Riverton", "Lakeside", "Fairview", "Greenville",
		"Bristol", "Clayton", "Dayton",
	}
	states = []string{
		"California", "Texas", "Oregon", "Colorado", "Vermont", "Ohio",
		"Georgia", "Montana",
	}
	countries = []string{
		"United States", "Canada", "Germany", "Norway", "Japan", "Brazil",
		"Australia", "Spain",
	}
)

const (
	letters       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits        = "0123456789"
	passwordExtra = "!@#$%^&*"
)

// Person bundles the fields a registration form typically needs.
type Person struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth string // YYYY-MM-DD
}

// Address is a randomly generated postal address.
type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

// Generator produces random test data from a seeded source. It is not safe
// for concurrent use; give each test its own.
type Generator struct {
	rng *rand.Rand
}

// New returns a generator seeded from the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a generator with a fixed seed for reproducible data.
func NewSeeded(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// String returns a random string of letters and digits.
func (g *Generator) String(length int) string {
	return g.fromCharset(letters+digits, length)
}

// Letters returns a random string of letters only.
func (g *Generator) Letters(length int) string {
	return g.fromCharset(letters, length)
}

// Email returns a random address under the given domain. An empty domain
// defaults to example.com.
func (g *Generator) Email(domain string) string {
	if domain == "" {
		domain = "example.com"
	}
	return fmt.Sprintf("%s@%s", strings.ToLower(g.String(8)), domain)
}

// Phone returns a random US-format phone number.
func (g *Generator) Phone() string {
	return fmt.Sprintf("(%03d) %03d-%04d",
		200+g.rng.Intn(800), 200+g.rng.Intn(800), g.rng.Intn(10000))
}

// Password returns a random password containing letters, digits, and
// punctuation. Length is clamped to a minimum of 8.
func (g *Generator) Password(length int) string {
	if length < 8 {
		length = 8
	}
	// Guarantee one character from each class, shuffle the rest in.
	chars := []byte{
		letters[g.rng.Intn(len(letters))],
		digits[g.rng.Intn(len(digits))],
		passwordExtra[g.rng.Intn(len(passwordExtra))],
	}
	all := letters + digits + passwordExtra
	for len(chars) < length {
		chars = append(chars, all[g.rng.Intn(len(all))])
	}
	g.rng.Shuffle(len(chars), func(i, j int) { chars[i], chars[j] = chars[j], chars[i] })
	return string(chars)
}

// Person returns a fully populated person with an adult date of birth.
func (g *Generator) Person() Person {
	first := g.pick(firstNames)
	last := g.pick(lastNames)
	dob := g.Date(
		time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Now().AddDate(-18, 0, 0),
	)
	return Person{
		FirstName:   first,
		LastName:    last,
		Email:       fmt.Sprintf("%s.%s.%s@example.com", strings.ToLower(first), strings.ToLower(last), g.String(4)),
		Phone:       g.Phone(),
		DateOfBirth: dob.Format("2006-01-02"),
	}
}

// Address returns a random postal address.
func (g *Generator) Address() Address {
	return Address{
		Street:  fmt.Sprintf("%d %s", 1+g.rng.Intn(9999), g.pick(streets)),
		City:    g.pick(cities),
		State:   g.pick(states),
		ZipCode: fmt.Sprintf("%05d", g.rng.Intn(100000)),
		Country: g.pick(countries),
	}
}

// Date returns a random instant between start and end. When end is not after
// start, start is returned.
func (g *Generator) Date(start, end time.Time) time.Time {
	span := end.Sub(start)
	if span <= 0 {
		return start
	}
	return start.Add(time.Duration(g.rng.Int63n(int64(span))))
}

func (g *Generator) fromCharset(charset string, length int) string {
	if length <= 0 {
		return ""
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[g.rng.Intn(len(charset))]
	}
	return string(b)
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}
