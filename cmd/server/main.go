package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/dpup/prefab"

	"github.com/ruamjai/ruamjai/internal/cache"
	"github.com/ruamjai/ruamjai/internal/config"
	"github.com/ruamjai/ruamjai/internal/feed"
	"github.com/ruamjai/ruamjai/internal/lib/alerts"
	"github.com/ruamjai/ruamjai/internal/lib/classify"
	"github.com/ruamjai/ruamjai/internal/lib/tracker"
	"github.com/ruamjai/ruamjai/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	ctx := context.Background()

	// Initialize cache with periodic stale-entry cleanup
	cacheInstance := cache.New()
	cacheInstance.StartPeriodicCleanup(ctx, appConfig.Cache.CleanupInterval)

	// Initialize the incident classifier. An empty API key is a supported
	// configuration; classification then answers with the offline fallback.
	var classifier classify.Classifier = classify.NewClassifier(classify.Config{
		APIKey:      appConfig.Classifier.APIKey,
		Model:       appConfig.Classifier.Model,
		BaseURL:     appConfig.Classifier.BaseURL,
		Temperature: appConfig.Classifier.Temperature,
		MaxTokens:   appConfig.Classifier.MaxTokens,
	})
	if appConfig.Classifier.APIKey == "" {
		log.Printf("Classifier API key not configured, reports will use the offline fallback")
	} else {
		classifier = classify.NewCachedClassifier(classifier, cacheInstance, appConfig.Classifier.CacheTTL)
		log.Printf("Incident classification enabled with content-based caching (model: %s)", appConfig.Classifier.Model)
	}

	// Initialize the session: tracker, alert store, triage, classification
	session := services.NewSession(services.Options{
		Tracker: tracker.Options{
			TickInterval: appConfig.Tracker.TickInterval,
			StepDelta:    appConfig.Tracker.StepDelta,
			Home:         appConfig.Tracker.Home.Point(),
		},
		RadiusKm:   appConfig.Triage.RadiusKm,
		Classifier: classifier,
		OnInterrupt: func(a alerts.Alert) {
			log.Printf("Triage: presenting alert %s (%s/%s)", a.ID, a.Category, a.Severity)
		},
	})
	defer session.Close()

	// Start location tracking. A configured route wins over the default
	// diagonal walk.
	if appConfig.Tracker.Route != "" {
		if err := session.StartRouteWalk(appConfig.Tracker.Route); err != nil {
			log.Fatalf("Failed to start route walk: %v", err)
		}
	} else {
		session.StartSimulatedWalk()
	}

	// Start the mock alert feed
	producer := feed.NewProducer(session)
	if !appConfig.Feed.SkipSeed {
		producer.Seed()
	}
	producer.Run(ctx, appConfig.Feed.TransitionInterval)
	defer producer.Stop()

	log.Printf("Alert triage server starting")
	log.Printf("Interrupt radius: %.1f km", appConfig.Triage.RadiusKm)
	log.Printf("Seed alerts loaded: %d", session.Store().Len())

	// Create Prefab server; port and friends come from prefab.yaml/env vars
	api := services.NewAPI(session)
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/api/v1/", api.ServeHTTP),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system, overlaying
// loaded sections onto the documented defaults.
func loadConfig() *config.Config {
	appConfig := &config.Config{}

	sections := map[string]interface{}{
		"tracker":    &appConfig.Tracker,
		"triage":     &appConfig.Triage,
		"classifier": &appConfig.Classifier,
		"feed":       &appConfig.Feed,
		"cache":      &appConfig.Cache,
	}
	for key, target := range sections {
		if err := prefab.Config.Unmarshal(key, target); err != nil {
			log.Fatalf("Failed to unmarshal %s section: %v", key, err)
		}
	}

	appConfig.Merge(config.DefaultConfig())
	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>ruamjai</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">ruamjai</span>

Proximity-based alert triage server for the RuamJai personal safety
client: live alert feed, nearby filtering, and incident classification.

<span class="header">API Endpoints:</span>

  <a href="/api/v1/state">GET  /api/v1/state</a>              - Position, triage phase, destination
  <a href="/api/v1/alerts">GET  /api/v1/alerts</a>             - Alert feed with distances (?sort=distance)
  <a href="/api/v1/contacts">GET  /api/v1/contacts</a>           - Emergency hotline directory
       POST /api/v1/classify           - Classify free-text incident report
       POST /api/v1/report             - File a report (draft token or quick category)
       POST /api/v1/triage/dismiss     - Dismiss the interrupting alert
       POST /api/v1/triage/navigate    - Navigate to the interrupting alert
       POST /api/v1/navigation/cancel  - Clear the navigation destination

<span class="header">Example Usage:</span>
  curl <a href="/api/v1/alerts">http://localhost:8080/api/v1/alerts</a>
  curl <a href="/api/v1/state">http://localhost:8080/api/v1/state</a>
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
