package main

import (
	"context"
	"fmt"

	"studybridge/internal/db"
	"studybridge/internal/seed"
	"studybridge/internal/store"

	"github.com/k0kubun/pp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo leads and document records",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Dump the seeded rows",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		leadRepo := store.NewLeadRepository(pool)
		documentRepo := store.NewDocumentRepository(pool)

		logrus.Info("Seeding leads...")
		leads, err := seed.SeedLeads(ctx, leadRepo)
		if err != nil {
			return fmt.Errorf("failed to seed leads: %w", err)
		}

		logrus.Info("Seeding documents...")
		documents, err := seed.SeedDocuments(ctx, documentRepo)
		if err != nil {
			return fmt.Errorf("failed to seed documents: %w", err)
		}

		if c.Bool("verbose") {
			pp.Println(leads)
			pp.Println(documents)
		}

		logrus.WithFields(logrus.Fields{
			"leads":     len(leads),
			"documents": len(documents),
			"student":   seed.DemoStudentID(),
		}).Info("Seed complete")

		return nil
	},
}
