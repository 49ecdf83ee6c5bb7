package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"hotel_id",
			"room_number",
			"room_type",
			"available",
			"version",
			"created_at",
		},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"hotel_id": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
			"room_number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 16,
				"pattern":   "^[A-Za-z0-9][A-Za-z0-9-]*$",
			},
			"room_type":       bson.M{"bsonType": "string", "minLength": 2, "maxLength": 50},
			"price_per_night": bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0},
			"capacity":        bson.M{"bsonType": []string{"int", "long"}, "minimum": 0, "maximum": 20},
			"available":       bson.M{"bsonType": "bool"},
			"version":         bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"created_at":      bson.M{"bsonType": "date"},
			"updated_at":      bson.M{"bsonType": "date"},
		},
	},
}
