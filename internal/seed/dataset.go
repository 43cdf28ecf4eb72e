package seed

import (
	"time"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
)

type userSeed struct {
	Name  string
	Email string
	Admin bool
}

type reviewSeed struct {
	Author  string // reviewer email
	Rating  int
	Title   string
	Comment string
}

type productSeed struct {
	Product domain.Product
	Vendor  string // vendor email, optional
	Reviews []reviewSeed
}

type subscriptionSeed struct {
	User      string // buyer email
	ProductID string
	Purchased time.Time
	Expires   time.Time
}

// Data is the demo catalog. Dates are relative to the moment it was built so
// the Today / Yesterday / This Week filters always have something to show.
type Data struct {
	Users         []userSeed
	Products      []productSeed
	Subscriptions []subscriptionSeed
}

const (
	BuyerEmail  = "jane@doe.com"
	VendorEmail = "vendor@realpick.dev"
)

// Dataset builds the demo data relative to now. adminEmail owns the
// moderation queue; it falls back to admin@realpick.dev.
func Dataset(now time.Time, adminEmail string) Data {
	if adminEmail == "" {
		adminEmail = "admin@realpick.dev"
	}
	daysAgo := func(n int) *time.Time {
		t := now.AddDate(0, 0, -n)
		return &t
	}
	in := func(t time.Time) *time.Time { return &t }
	str := func(s string) *string { return &s }

	return Data{
		Users: []userSeed{
			{Name: "Realpick Admin", Email: adminEmail, Admin: true},
			{Name: "Jane Doe", Email: BuyerEmail},
			{Name: "Indie Vendor", Email: VendorEmail},
			{Name: "Sarah J.", Email: "sarah@demo.realpick.dev"},
			{Name: "Mike R.", Email: "mike@demo.realpick.dev"},
			{Name: "Emily C.", Email: "emily@demo.realpick.dev"},
			{Name: "David L.", Email: "david@demo.realpick.dev"},
			{Name: "Jessica P.", Email: "jessica@demo.realpick.dev"},
			{Name: "Kevin T.", Email: "kevin@demo.realpick.dev"},
			{Name: "Maria G.", Email: "maria@demo.realpick.dev"},
			{Name: "Anand P.", Email: "anand@demo.realpick.dev"},
		},
		Products: []productSeed{
			{
				Product: domain.Product{
					ID:          "craftnote",
					Name:        "CraftNote",
					Tagline:     "The distraction-free, markdown-first notebook for builders.",
					Description: "A minimalist writing application with full markdown support and a calm interface for developers, writers and thinkers.",
					LogoURL:     placeholderLogo("CN"),
					WebsiteURL:  "https://craftnote.example.com",
					GalleryURLs: gallery("CraftNote", 3),
					Categories:  []string{"Productivity", "Dev Tools", "Writing Tools"},
					Upvotes:     256,
					Status:      domain.ProductStatusApproved,
					MadeIn:      str("India"),
					LaunchDate:  in(now),
					Deal: &domain.Deal{
						Title:       "Launch Week Special",
						Description: "Get 50% off your first year subscription, exclusively for Realpick users.",
						Discount:    "50% OFF",
						Code:        "REALPICK50",
						ExpiresAt:   in(now.AddDate(0, 0, 7)),
					},
				},
				Reviews: []reviewSeed{
					{"sarah@demo.realpick.dev", 5, "Finally, the perfect notes app!", "The markdown support is flawless and the interface is so clean. It helps me think better."},
					{"mike@demo.realpick.dev", 5, "A game-changer for my workflow.", "I live in markdown and CraftNote makes documenting my projects a joy."},
				},
			},
			{
				Product: domain.Product{
					ID:          "pixel-perfect",
					Name:        "Pixel Perfect",
					Tagline:     "Collaborative design feedback directly on your website.",
					Description: "Leave visual feedback and comments directly on live websites and web apps, then iterate and get approval in one place.",
					LogoURL:     placeholderLogo("PP"),
					WebsiteURL:  "https://pixelperfect.example.com",
					GalleryURLs: gallery("Pixel+Perfect", 2),
					Categories:  []string{"Design Tools", "Utilities"},
					Upvotes:     189,
					Status:      domain.ProductStatusApproved,
					LaunchDate:  daysAgo(1),
				},
				Reviews: []reviewSeed{
					{"emily@demo.realpick.dev", 5, "Saves our agency hours every week.", "Client feedback used to be a mess of screenshots. Now it lives on the page it is about."},
				},
			},
			{
				Product: domain.Product{
					ID:          "querymaster",
					Name:        "QueryMaster",
					Tagline:     "The ultimate SQL client for modern data teams.",
					Description: "A fast SQL client with shared queries, schema browsing and result visualisation built for teams.",
					LogoURL:     placeholderLogo("QM"),
					WebsiteURL:  "https://querymaster.example.com",
					GalleryURLs: gallery("QueryMaster", 2),
					Categories:  []string{"Dev Tools", "Analytics & Data"},
					Upvotes:     215,
					Status:      domain.ProductStatusApproved,
					MadeIn:      str("India"),
					LaunchDate:  daysAgo(1),
					Deal: &domain.Deal{
						Title:       "Team Bundle",
						Description: "Get 3 seats for the price of 2 for your first year.",
						Discount:    "3-for-2",
						Code:        "TEAMUP",
						ExpiresAt:   in(now.AddDate(0, 1, 0)),
					},
				},
				Reviews: []reviewSeed{
					{"david@demo.realpick.dev", 5, "The best SQL client I've ever used.", "Fast, clean and the shared query library is a killer feature for our team."},
				},
			},
			{
				Product: domain.Product{
					ID:          "flowstate",
					Name:        "FlowState",
					Tagline:     "Automate your workflows with a visual, no-code builder.",
					Description: "Connect your apps and automate repetitive work with a drag-and-drop workflow builder.",
					LogoURL:     placeholderLogo("FS"),
					WebsiteURL:  "https://flowstate.example.com",
					GalleryURLs: gallery("FlowState", 2),
					Categories:  []string{"No-Code / Low-Code", "Productivity", "Utilities"},
					Upvotes:     142,
					Status:      domain.ProductStatusApproved,
					LaunchDate:  daysAgo(3),
				},
				Reviews: []reviewSeed{
					{"jessica@demo.realpick.dev", 4, "Very powerful, with a slight learning curve.", "Once it clicks you can automate almost anything, but expect an afternoon of tinkering."},
				},
			},
			{
				Product: domain.Product{
					ID:          "api-forge",
					Name:        "API Forge",
					Tagline:     "Visually build, test, and document your APIs in minutes.",
					Description: "Design endpoints visually, run tests against them and publish always up-to-date documentation.",
					LogoURL:     placeholderLogo("AF"),
					WebsiteURL:  "https://apiforge.example.com",
					GalleryURLs: gallery("API+Forge", 2),
					Categories:  []string{"Backend Tools", "Dev Tools", "API"},
					Upvotes:     312,
					Status:      domain.ProductStatusApproved,
					LaunchDate:  daysAgo(4),
				},
				Reviews: []reviewSeed{
					{"kevin@demo.realpick.dev", 5, "Incredible time-saver for API dev.", "Docs that never drift from the implementation. I am not going back."},
				},
			},
			{
				Product: domain.Product{
					ID:          "db-sentry",
					Name:        "DB Sentry",
					Tagline:     "Real-time monitoring and performance tuning for your database.",
					Description: "Spot slow queries, lock contention and missing indexes as they happen, with tuning suggestions attached.",
					LogoURL:     placeholderLogo("DS"),
					WebsiteURL:  "https://dbsentry.example.com",
					GalleryURLs: gallery("DB+Sentry", 2),
					Categories:  []string{"Backend Tools", "Databases", "Analytics & Data"},
					Upvotes:     278,
					Status:      domain.ProductStatusApproved,
					LaunchDate:  daysAgo(8),
				},
				Reviews: []reviewSeed{
					{"maria@demo.realpick.dev", 5, "Found a critical performance issue in minutes!", "Installed it on a Friday and had a missing index fixed before lunch."},
				},
			},
			{
				Product: domain.Product{
					ID:          "deploybot",
					Name:        "DeployBot",
					Tagline:     "Automate your deployments with zero downtime.",
					Description: "Push-to-deploy pipelines with health-checked rollouts and one-click rollbacks.",
					LogoURL:     placeholderLogo("DB"),
					WebsiteURL:  "https://deploybot.example.com",
					GalleryURLs: gallery("DeployBot", 2),
					Categories:  []string{"Backend Tools", "DevOps", "Utilities"},
					Upvotes:     255,
					Status:      domain.ProductStatusApproved,
					LaunchDate:  daysAgo(10),
					Deal: &domain.Deal{
						Title:       "Free for Startups",
						Description: "Get the first 100 deployments per month for free.",
						Discount:    "100 Free/Mo",
						Code:        "STARTUPDEVOPS",
					},
				},
				Reviews: []reviewSeed{
					{"anand@demo.realpick.dev", 5, "Deployments are now stress-free.", "Rollbacks take seconds and we have not had a botched release since."},
				},
			},
			{
				Product: domain.Product{
					ID:          "standup-bot",
					Name:        "Standup Bot",
					Tagline:     "Async standups for remote teams, right in chat.",
					Description: "Collects daily updates from every teammate and posts a digest so nobody has to sit through a status meeting.",
					LogoURL:     placeholderLogo("SB"),
					WebsiteURL:  "https://standupbot.example.com",
					Categories:  []string{"Productivity"},
					Status:      domain.ProductStatusPending,
					LaunchDate:  in(now),
				},
				Vendor: VendorEmail,
			},
		},
		Subscriptions: []subscriptionSeed{
			{User: BuyerEmail, ProductID: "craftnote", Purchased: now.AddDate(0, 0, -10), Expires: now.AddDate(0, 6, 0)},
			{User: BuyerEmail, ProductID: "pixel-perfect", Purchased: now.AddDate(0, 0, -90), Expires: now.AddDate(0, 0, 3)},
			{User: BuyerEmail, ProductID: "flowstate", Purchased: now.AddDate(-1, 0, 0), Expires: now.AddDate(0, 0, -5)},
		},
	}
}

func placeholderLogo(text string) string {
	return "https://placehold.co/200x200/transparent/353535?text=" + text
}

func gallery(name string, n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://placehold.co/1280x720/353535/f7f9f9?text=" + name + "+" + string(rune('1'+i))
	}
	return urls
}
