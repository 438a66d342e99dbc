package service

import (
	"github.com/refexsite/internal/db"
	"gorm.io/gorm"
)

// Catalog holds one content service per section of the site.
type Catalog struct {
	HomeHero   *Singleton[db.HomeHero, *db.HomeHero]
	WhoWeAre   *Singleton[db.WhoWeAre, *db.WhoWeAre]
	Features   *Collection[db.Feature, *db.Feature]
	Impacts    *Collection[db.Impact, *db.Impact]
	Businesses *Collection[db.Business, *db.Business]
	Clients    *Collection[db.Client, *db.Client]
	Awards     *Collection[db.Award, *db.Award]

	Header      *Singleton[db.HeaderContent, *db.HeaderContent]
	Navigation  *Collection[db.NavigationItem, *db.NavigationItem]
	Footer      *Singleton[db.FooterContent, *db.FooterContent]
	FooterLinks *Collection[db.FooterLink, *db.FooterLink]

	About   *Singleton[db.AboutPage, *db.AboutPage]
	Leaders *Collection[db.Leader, *db.Leader]

	AshUtilization *Singleton[db.AshUtilizationPage, *db.AshUtilizationPage]
	GreenMobility  *Singleton[db.GreenMobilityPage, *db.GreenMobilityPage]
	Esg            *Singleton[db.EsgPage, *db.EsgPage]
	EsgPolicies    *Collection[db.EsgPolicy, *db.EsgPolicy]

	Investors         *Singleton[db.InvestorsPageContent, *db.InvestorsPageContent]
	InvestorDocuments *Collection[db.InvestorDocument, *db.InvestorDocument]

	PressReleases *Collection[db.PressRelease, *db.PressRelease]
}

// NewCatalog wires every section against gdb.
func NewCatalog(gdb *gorm.DB) *Catalog {
	return &Catalog{
		HomeHero:   NewSingleton[db.HomeHero](gdb, "home-hero"),
		WhoWeAre:   NewSingleton[db.WhoWeAre](gdb, "who-we-are"),
		Features:   NewCollection[db.Feature](gdb, "features"),
		Impacts:    NewCollection[db.Impact](gdb, "impacts"),
		Businesses: NewCollection[db.Business](gdb, "businesses"),
		Clients:    NewCollection[db.Client](gdb, "clients"),
		Awards:     NewCollection[db.Award](gdb, "awards"),

		Header:      NewSingleton[db.HeaderContent](gdb, "header"),
		Navigation:  NewCollection[db.NavigationItem](gdb, "navigation"),
		Footer:      NewSingleton[db.FooterContent](gdb, "footer"),
		FooterLinks: NewCollection[db.FooterLink](gdb, "footer-links"),

		About:   NewSingleton[db.AboutPage](gdb, "about"),
		Leaders: NewCollection[db.Leader](gdb, "leaders"),

		AshUtilization: NewSingleton[db.AshUtilizationPage](gdb, "ash-utilization"),
		GreenMobility:  NewSingleton[db.GreenMobilityPage](gdb, "green-mobility"),
		Esg:            NewSingleton[db.EsgPage](gdb, "esg"),
		EsgPolicies:    NewCollection[db.EsgPolicy](gdb, "esg-policies"),

		Investors:         NewSingleton[db.InvestorsPageContent](gdb, "investors"),
		InvestorDocuments: NewCollection[db.InvestorDocument](gdb, "investor-documents"),

		PressReleases: NewCollection[db.PressRelease](gdb, "press-releases"),
	}
}

// Sections lists every section in a stable order.
func (c *Catalog) Sections() []Section {
	return []Section{
		c.HomeHero, c.WhoWeAre, c.Features, c.Impacts, c.Businesses, c.Clients, c.Awards,
		c.Header, c.Navigation, c.Footer, c.FooterLinks,
		c.About, c.Leaders,
		c.AshUtilization, c.GreenMobility, c.Esg, c.EsgPolicies,
		c.Investors, c.InvestorDocuments,
		c.PressReleases,
	}
}

// Section finds a section by key.
func (c *Catalog) Section(key string) (Section, bool) {
	for _, section := range c.Sections() {
		if section.Key() == key {
			return section, true
		}
	}
	return nil, false
}
