package seeder

import (
	"fmt"
	"math/rand"
	"strings"
)

// Synthesizer produces plausible raw field values. The pipeline only relies
// on the values looking realistic; Email and Phone must not repeat within
// one generator.
type Synthesizer interface {
	FirstName() string
	LastName() string
	Email() string
	Phone() string
	Address() string
	City() string
	Word() string
}

var (
	firstNames = []string{
		"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry",
		"Peter", "Abena", "Kwame", "Maria", "Liam", "Olivia", "Noah", "Emma", "Ama", "Kofi",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Asamoah", "Mensah", "Owusu", "Taylor", "Anderson", "Thomas", "Moore", "Clark", "Lewis", "Walker",
	}
	emailDomains = []string{"example.com", "example.org", "example.net", "mail.com", "test.com"}
	streets      = []string{"Main Street", "Oak Avenue", "Pine Road", "Maple Drive", "Cedar Lane", "Elm Street", "Harbor Way", "Hill Road"}
	cities       = []string{"Springfield", "Riverton", "Lakeside", "Fairview", "Georgetown", "Kumasi", "Accra", "Madison", "Franklin", "Clinton"}
	states       = []string{"CA", "NY", "TX", "WA", "IL", "GA", "OH", "MI"}
	loremWords   = []string{
		"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta",
		"rustic", "golden", "smoky", "crispy", "fiery", "garden", "royal", "sunset",
		"harbor", "village", "urban", "classic", "midnight", "summit", "prairie", "coastal",
	}
)

// DataGenerator is the built-in Synthesizer. It shares the run's random
// source so a fixed seed reproduces the whole dataset.
type DataGenerator struct {
	rand       *rand.Rand
	counter    int
	seenEmails map[string]bool
	seenPhones map[string]bool
}

func NewDataGenerator(r *rand.Rand) *DataGenerator {
	return &DataGenerator{
		rand:       r,
		seenEmails: make(map[string]bool),
		seenPhones: make(map[string]bool),
	}
}

func (g *DataGenerator) pick(list []string) string {
	return list[g.rand.Intn(len(list))]
}

func (g *DataGenerator) FirstName() string {
	return g.pick(firstNames)
}

func (g *DataGenerator) LastName() string {
	return g.pick(lastNames)
}

func (g *DataGenerator) Email() string {
	local := strings.ToLower(g.pick(firstNames))
	switch g.rand.Intn(3) {
	case 0:
		local += "." + strings.ToLower(g.pick(lastNames))
	case 1:
		local += fmt.Sprintf("%d", g.rand.Intn(100))
	}
	email := local + "@" + g.pick(emailDomains)

	for g.seenEmails[email] {
		g.counter++
		email = fmt.Sprintf("%s%d@%s", local, g.counter, g.pick(emailDomains))
	}
	g.seenEmails[email] = true
	return email
}

// Phone returns an 11-digit MSISDN that has not been handed out before.
func (g *DataGenerator) Phone() string {
	for {
		phone := fmt.Sprintf("1%03d%03d%04d", 200+g.rand.Intn(800), g.rand.Intn(1000), g.rand.Intn(10000))
		if !g.seenPhones[phone] {
			g.seenPhones[phone] = true
			return phone
		}
	}
}

func (g *DataGenerator) Address() string {
	return fmt.Sprintf("%d %s\n%s, %s %05d",
		g.rand.Intn(9999)+1, g.pick(streets), g.pick(cities), g.pick(states), g.rand.Intn(100000))
}

func (g *DataGenerator) City() string {
	return g.pick(cities)
}

func (g *DataGenerator) Word() string {
	return g.pick(loremWords)
}
