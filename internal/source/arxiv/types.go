package arxiv

import "encoding/xml"

// feed is the Atom XML response from the arXiv API.
type feed struct {
	XMLName      xml.Name `xml:"feed"`
	TotalResults int      `xml:"totalResults"`
	StartIndex   int      `xml:"startIndex"`
	ItemsPerPage int      `xml:"itemsPerPage"`
	Entries      []entry  `xml:"entry"`
}

// entry is a single paper in the Atom feed.
type entry struct {
	ID              string     `xml:"id"` // "http://arxiv.org/abs/2301.12345v1"
	Title           string     `xml:"title"`
	Summary         string     `xml:"summary"`   // abstract
	Published       string     `xml:"published"` // "2023-01-15T18:30:00Z"
	Updated         string     `xml:"updated"`
	Authors         []author   `xml:"author"`
	Categories      []category `xml:"category"`
	Links           []link     `xml:"link"`
	PrimaryCategory category   `xml:"primary_category"`
}

// author is a paper author in the Atom feed.
type author struct {
	Name        string `xml:"name"`
	Affiliation string `xml:"affiliation"`
}

// category is an arXiv subject category.
type category struct {
	Term string `xml:"term,attr"`
}

// link is a link element in the Atom feed.
type link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}
