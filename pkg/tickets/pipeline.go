package tickets

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Filter holds the optional listing predicates. Author and Channel match
// the anchor message exactly; Query is a case-insensitive substring match
// against the anchor message's content or author name.
type Filter struct {
	Author  string
	Channel string
	Flagged *bool
	Status  string
	Query   string
}

// Joined reports whether the listing must join tickets to their anchor
// messages. Author, channel and free-text predicates all live on the
// message side of the join.
func (f Filter) Joined() bool {
	return f.Author != "" || f.Channel != "" || f.Query != ""
}

func match(cond bson.M) bson.D {
	return bson.D{{Key: "$match", Value: cond}}
}

// filterStages builds the pre-pagination stages for a filter. Data and
// count pipelines both start from this one function so their predicates
// cannot drift apart.
//
// Stage order on the joined path: exact filters (flagged, status, author,
// channel) come before the regex scan, so the expensive text match runs
// on the smallest candidate set.
func filterStages(f Filter) mongo.Pipeline {
	p := mongo.Pipeline{}
	if f.Joined() {
		p = append(p,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "messages",
				"localField":   "msg_id",
				"foreignField": "_id",
				"as":           "message",
			}}},
			bson.D{{Key: "$unwind", Value: "$message"}},
		)
	}
	if f.Flagged != nil {
		p = append(p, match(bson.M{"flagged": *f.Flagged}))
	}
	if f.Status != "" {
		p = append(p, match(bson.M{"status": f.Status}))
	}
	if f.Author != "" {
		p = append(p, match(bson.M{"message.author.name": f.Author}))
	}
	if f.Channel != "" {
		p = append(p, match(bson.M{"message.channel_id": f.Channel}))
	}
	if f.Query != "" {
		rx := bson.M{"$regex": f.Query, "$options": "i"}
		p = append(p, match(bson.M{"$or": []bson.M{
			{"message.content": rx},
			{"message.author.name": rx},
		}}))
	}
	return p
}

// dataPipeline appends sort/skip/limit to the filter stages. Sort is
// timestamp descending with _id descending as a deterministic tie-break
// so pagination is reproducible across requests.
func dataPipeline(f Filter, page, size int) mongo.Pipeline {
	return append(filterStages(f),
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "timestamp", Value: -1},
			{Key: "_id", Value: -1},
		}}},
		bson.D{{Key: "$skip", Value: int64((page - 1) * size)}},
		bson.D{{Key: "$limit", Value: int64(size)}},
	)
}

// countPipeline counts the documents matching the same filter stages,
// pre-pagination.
func countPipeline(f Filter) mongo.Pipeline {
	return append(filterStages(f), bson.D{{Key: "$count", Value: "total_count"}})
}

// authorsPipeline joins every ticket to its anchor message and collects
// the set of unique author objects. Tickets whose join produces no match
// are excluded ($unwind drops them).
func authorsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "messages",
			"localField":   "msg_id",
			"foreignField": "_id",
			"as":           "ticket_messages",
		}}},
		bson.D{{Key: "$unwind", Value: "$ticket_messages"}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"distinct_authors": bson.M{"$addToSet": "$ticket_messages.author"},
		}}},
	}
}

// channelsPipeline joins every ticket to its anchor message and returns
// the unique channel ids. Order is not guaranteed.
func channelsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "messages",
			"localField":   "msg_id",
			"foreignField": "_id",
			"as":           "message",
		}}},
		bson.D{{Key: "$unwind", Value: "$message"}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$message.channel_id"}}},
		bson.D{{Key: "$project", Value: bson.M{"_id": 0, "channel_id": "$_id"}}},
	}
}
