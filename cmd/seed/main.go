// Command main runs the database seeder for the forum.
package main

import (
	"context"
	"flag"
	"log"

	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 25, "Number of demo users to create")
	numPosts := flag.Int("posts", 100, "Number of demo posts to create")
	maxComments := flag.Int("comments", 6, "Maximum top-level comments per post")
	likeChance := flag.Int("like-chance", 20, "Percent chance a user likes a post or comment")
	shouldClean := flag.Bool("clean", false, "Delete all forum data before seeding")
	fixturesPath := flag.String("fixtures", "", "YAML fixtures file (defaults to the built-in catalog)")
	fixturesOnly := flag.Bool("fixtures-only", false, "Apply fixtures and skip demo content")
	fast := flag.Bool("fast", true, "Use the minimum bcrypt cost for demo users")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	factoryOpts := seed.FactoryOptions{}
	if *fast {
		factoryOpts.HashCost = 4
	}
	s := seed.NewSeeder(db, factoryOpts)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	fixtures, err := seed.DefaultFixtures()
	if *fixturesPath != "" {
		fixtures, err = seed.LoadFixtures(*fixturesPath)
	}
	if err != nil {
		log.Fatalf("❌ Fixtures invalid: %v", err)
	}
	if err := seed.ApplyFixtures(ctx, db, fixtures); err != nil {
		log.Fatalf("❌ Fixture seeding failed: %v", err)
	}
	log.Printf("✓ %d categories, %d tags, %d accounts from fixtures", len(fixtures.Categories), len(fixtures.Tags), len(fixtures.Users))

	if *fixturesOnly {
		return
	}

	summary, err := s.SeedDemo(ctx, seed.Options{
		NumUsers:           *numUsers,
		NumPosts:           *numPosts,
		MaxCommentsPerPost: *maxComments,
		LikeChance:         *likeChance,
	})
	if err != nil {
		log.Fatalf("❌ Demo seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d posts, %d comments, %d likes.", summary.Users, summary.Posts, summary.Comments, summary.Likes)
	log.Printf("📧 All demo users have the password: %s", seed.DemoPassword)
}
