package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
	"go.uber.org/zap"
)

const onboardingEntryPath = "/pt-packages/onboarding"

type catalogSource interface {
	ListSteps(ctx context.Context) ([]models.StepDescriptor, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
}

// CatalogService holds the read-only reference data loaded once at startup.
type CatalogService struct {
	steps    *onboarding.Catalog
	packages []models.Package
}

// LoadCatalog reads steps and packages from source, falling back to the
// built-in defaults when source is nil or holds no rows.
func LoadCatalog(ctx context.Context, source catalogSource, enquiryURL string, log *zap.Logger) (*CatalogService, error) {
	stepDescriptors := onboarding.DefaultSteps()
	packages := DefaultPackages()

	if source != nil {
		stored, err := source.ListSteps(ctx)
		if err != nil {
			return nil, fmt.Errorf("load onboarding steps: %w", err)
		}
		if len(stored) > 0 {
			stepDescriptors = stored
		} else {
			log.Warn("onboarding_steps table is empty, using built-in steps")
		}

		storedPackages, err := source.ListPackages(ctx)
		if err != nil {
			return nil, fmt.Errorf("load packages: %w", err)
		}
		if len(storedPackages) > 0 {
			packages = storedPackages
		} else {
			log.Warn("pt_packages table is empty, using built-in packages")
		}
	}

	steps, err := onboarding.NewCatalog(stepDescriptors, onboarding.StepBook)
	if err != nil {
		return nil, fmt.Errorf("build step catalog: %w", err)
	}

	for i := range packages {
		packages[i].CTAUrl = enquiryURL
		packages[i].OnboardingPath = onboardingEntryPath + "?plan=" + url.QueryEscape(packages[i].Code)
	}

	log.Info("catalog loaded",
		zap.Int("steps", len(stepDescriptors)),
		zap.Int("packages", len(packages)),
		zap.Bool("from_database", source != nil),
	)

	return &CatalogService{steps: steps, packages: packages}, nil
}

func (s *CatalogService) Steps() *onboarding.Catalog {
	return s.steps
}

func (s *CatalogService) Packages() []models.Package {
	return append([]models.Package(nil), s.packages...)
}

func DefaultPackages() []models.Package {
	promoPrice := int64(0)
	promoBadge := "Promo"

	return []models.Package{
		{
			Code:            "HYBRID_01",
			Title:           "HYBRID_01",
			Summary:         "8 Sessions / 2x Per Week / Private Studio",
			Description:     "Entry-level structure to rebuild consistency. Foundation, discipline, routine.",
			SessionsTotal:   8,
			SessionsPerWeek: 2,
			PricePence:      45000,
			PromoPricePence: &promoPrice,
			Badge:           &promoBadge,
			CTALabel:        "Claim",
		},
		{
			Code:            "HYBRID_02",
			Title:           "HYBRID_02",
			Summary:         "12 Sessions / 3x Per Week / Private Studio / Balanced Progression",
			Description:     "Designed for transformation. Feedback, accountability, measurable output.",
			SessionsTotal:   12,
			SessionsPerWeek: 3,
			PricePence:      60000,
			CTALabel:        "Enquire",
		},
		{
			Code:            "HYBRID_03",
			Title:           "HYBRID_03",
			Summary:         "16 Sessions / 4x Per Week / Private Studio / Performance Tier",
			Description:     "Precision coaching. Adaptive programming. Maximum accountability.",
			SessionsTotal:   16,
			SessionsPerWeek: 4,
			PricePence:      75000,
			CTALabel:        "Enquire",
		},
	}
}
