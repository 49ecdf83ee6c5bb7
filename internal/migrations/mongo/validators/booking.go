package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_code",
			"room_id",
			"guest_id",
			"check_in_date",
			"check_out_date",
			"number_of_guests",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_code": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9A-F]{10}$",
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"guest_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"staff_id": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"check_in_date": bson.M{
				"bsonType": "date",
			},

			"check_out_date": bson.M{
				"bsonType": "date",
			},

			"number_of_guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  20,
			},

			"status": bson.M{
				"enum": []string{"BOOKED", "CHECKED_IN", "CHECKED_OUT", "CANCELLED"},
			},

			"service_ids": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 50,
				"items":    bson.M{"bsonType": "string"},
			},

			"payment_ref": bson.M{
				"bsonType":  "string",
				"maxLength": 128,
			},

			"invoice_ref": bson.M{
				"bsonType":  "string",
				"maxLength": 128,
			},

			"created_at":     bson.M{"bsonType": "date"},
			"updated_at":     bson.M{"bsonType": "date"},
			"checked_in_at":  bson.M{"bsonType": "date"},
			"checked_out_at": bson.M{"bsonType": "date"},
			"cancelled_at":   bson.M{"bsonType": "date"},
		},
	},
}
