package adapter

import (
	"glitchfinder/config"
	"glitchfinder/helpers"
	"glitchfinder/internal/pricing"
)

// EstimatorFactory builds the former-price estimator for one retailer's
// uplift range. Production uses pricing.NewRandomUplift; tests inject a
// fixed factor.
type EstimatorFactory func(min, max float64) pricing.UpliftEstimator

// BuildAdapters creates all retailer adapters from the configuration. The
// registry is resolved once at startup; retailers differ only in their
// SiteConfig data.
func BuildAdapters(cfg *config.Config, fetch helpers.FetchFunc, newEstimator EstimatorFactory) []SiteAdapter {
	configurations := []SiteConfig{
		{
			Name:       "Amazon",
			SearchURL:  cfg.AmazonURL,
			BaseURL:    "https://www.amazon.fr",
			MaxPerSite: 15, // Amazon stricter
			UpliftMin:  1.2,
			UpliftMax:  1.8,
			Selectors: Selectors{
				Item:          ".s-result-item",
				Title:         "h2 a span",
				Price:         ".a-price-whole",
				PriceFraction: ".a-price-fraction",
				FormerPrice:   ".a-text-price .a-offscreen",
				Link:          "h2 a",
			},
		},
		{
			Name:       "Cdiscount",
			SearchURL:  cfg.CdiscountURL,
			BaseURL:    "https://www.cdiscount.com",
			MaxPerSite: 20,
			UpliftMin:  1.2,
			UpliftMax:  1.8,
			Selectors: Selectors{
				Item:        ".lpMain .prdtBloc",
				Title:       ".prdtTitle",
				Price:       ".price",
				FormerPrice: ".strike",
				Link:        "a.prdtTitle, .prdtTitle a",
			},
		},
		{
			Name:       "Darty",
			SearchURL:  cfg.DartyURL,
			BaseURL:    "https://www.darty.com",
			MaxPerSite: 20,
			UpliftMin:  1.2,
			UpliftMax:  1.7,
			Selectors: Selectors{
				Item:        ".product-card",
				Title:       ".product-card-title",
				Price:       ".product-price",
				FormerPrice: ".product-old-price",
				Link:        "a.product-link",
			},
		},
		{
			Name:       "Fnac",
			SearchURL:  cfg.FnacURL,
			BaseURL:    "https://www.fnac.com",
			MaxPerSite: 20,
			UpliftMin:  1.2,
			UpliftMax:  1.7,
			Selectors: Selectors{
				Item:        ".Article-item",
				Title:       ".Article-title",
				Price:       ".userPrice",
				FormerPrice: ".oldPrice",
				Link:        "a.Article-link",
			},
		},
		{
			Name:       "LDLC",
			SearchURL:  cfg.LdlcURL,
			BaseURL:    "https://www.ldlc.com",
			MaxPerSite: 20,
			UpliftMin:  1.2,
			UpliftMax:  1.7,
			Selectors: Selectors{
				Item:        ".product",
				Title:       ".product-title",
				Price:       ".price",
				FormerPrice: ".price-old",
				Link:        "a",
			},
		},
	}

	adapters := make([]SiteAdapter, 0, len(configurations))
	for _, sc := range configurations {
		adapters = append(adapters, NewConfigurableAdapter(sc, fetch, newEstimator(sc.UpliftMin, sc.UpliftMax)))
	}
	return adapters
}
