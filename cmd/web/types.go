package main

import (
	oauth "github.com/weshareshare/oauth-pkce-golang"
)

type WebServer struct {
	cfg    *Config
	client *oauth.Client
	kv     *oauth.KVStore
}

// samplePosts back the demo feed shown next to real uploads.
var samplePosts = []oauth.Post{
	{
		PostID:    "p1",
		Author:    "Explorer_Jane",
		Caption:   "Amazing view from the mountain summit!",
		MediaType: "image",
		CreatedAt: "2 hours ago",
	},
	{
		PostID:    "p2",
		Author:    "Code_Master",
		Caption:   "Quick demo of my new video pipeline",
		MediaType: "video",
		CreatedAt: "5 minutes ago",
	},
}
