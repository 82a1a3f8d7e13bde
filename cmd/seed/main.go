// Command main runs the database seeder for Quill.
package main

import (
	"flag"
	"log"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	postsPerUser := flag.Int("posts", 5, "Number of posts per user")
	draftRatio := flag.Float64("drafts", 0.3, "Fraction of posts left as drafts")
	commentsPerPost := flag.Int("comments", 4, "Maximum number of comments per published post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d posts each, drafts=%.0f%%, clean=%v",
		*numUsers, *postsPerUser, *draftRatio*100, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:        *numUsers,
		PostsPerUser:    *postsPerUser,
		DraftRatio:      *draftRatio,
		CommentsPerPost: *commentsPerPost,
		ShouldClean:     *shouldClean,
	}
	if err := seed.Run(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
