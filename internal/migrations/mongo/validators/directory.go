package validators

import "go.mongodb.org/mongo-driver/bson"

// Guests and hotel services are owned by other systems; only identity is checked.

var GuestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": []string{"objectId", "string"}},
		},
	},
}

var HotelServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": []string{"objectId", "string"}},
		},
	},
}
