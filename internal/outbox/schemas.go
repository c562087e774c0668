package outbox

const activityCreatedSchema = `{
  "type": "object",
  "title": "ActivityCreated",
  "properties": {
    "activity_id": {"type": "string"},
    "user_id": {"type": "string"},
    "type": {"type": "string", "enum": ["run", "ride"]},
    "title": {"type": "string"},
    "distance_km": {"type": "number"},
    "duration_min": {"type": "integer"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "user_id", "type", "title", "distance_km", "duration_min", "occurred_at"],
  "additionalProperties": false
}`

const activityUpdatedSchema = `{
  "type": "object",
  "title": "ActivityUpdated",
  "properties": {
    "activity_id": {"type": "string"},
    "user_id": {"type": "string"},
    "type": {"type": "string", "enum": ["run", "ride"]},
    "title": {"type": "string"},
    "distance_km": {"type": "number"},
    "duration_min": {"type": "integer"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "user_id", "type", "title", "distance_km", "duration_min", "occurred_at"],
  "additionalProperties": false
}`

const activityDeletedSchema = `{
  "type": "object",
  "title": "ActivityDeleted",
  "properties": {
    "activity_id": {"type": "string"},
    "user_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "user_id", "occurred_at"],
  "additionalProperties": false
}`

const profileStatsSchema = `{
  "type": "object",
  "title": "ProfileStatsRecalculated",
  "properties": {
    "user_id": {"type": "string"},
    "total_distance_km": {"type": "number"},
    "total_time_min": {"type": "number"},
    "total_activities": {"type": "integer"},
    "avg_speed_kmh": {"type": "number"},
    "longest_run_km": {"type": "number"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "total_distance_km", "total_time_min", "total_activities", "avg_speed_kmh", "longest_run_km", "occurred_at"],
  "additionalProperties": false
}`
