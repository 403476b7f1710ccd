package service

import (
	"strings"

	"github.com/xxxsen/ai360/internal/config"
	"github.com/xxxsen/ai360/internal/model"
)

type AboutSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type AboutPage struct {
	Title    string         `json:"title"`
	Sections []AboutSection `json:"sections"`
}

type AboutService struct {
	page *AboutPage
}

func NewAboutService(cfg config.AboutConfig) *AboutService {
	creator := strings.TrimSpace(cfg.Creator)
	if creator == "" {
		creator = "the 360AI team"
	}
	contact := "Reach us through the channels listed by your deployment."
	if len(cfg.Contact) > 0 {
		contact = strings.Join(cfg.Contact, "\n")
	}
	return &AboutService{page: &AboutPage{
		Title: "360AI",
		Sections: []AboutSection{
			{
				Heading: "About Us",
				Body: "Welcome to 360AI, your digital companion in the world of artificial intelligence! " +
					"Our platform offers advanced solutions for your various needs, " +
					"from text analysis and image recognition to PDF processing.",
			},
			{
				Heading: "Our Vision",
				Body: "At 360AI, we strive to make AI accessible and valuable for everyone. " +
					"Whether you're looking for insights from your documents, analyzing images, or seeking answers " +
					"from advanced AI models, we are here to assist you with precision and ease.",
			},
			{
				Heading: "Meet the Creator",
				Body:    "Our platform is brought to you by " + creator + ", with a passion for integrating AI into practical solutions.",
			},
			{
				Heading: "Contact Us",
				Body:    contact,
			},
		},
	}}
}

func (s *AboutService) Get(sess *model.Session) (*AboutPage, error) {
	if err := requireMode(sess, model.ModeAbout); err != nil {
		return nil, err
	}
	return s.page, nil
}
