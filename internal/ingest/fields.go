package ingest

// Field aliases accepted by the text sources. The first name is canonical.
var (
	roomKeys      = []string{"room", "room_id", "roomId", "name"}
	roomTypeKeys  = []string{"room_type", "roomType", "type"}
	timestampKeys = []string{"timestamp", "time", "ts"}
	tempKeys      = []string{"temperature", "temp"}
	humidityKeys  = []string{"humidity"}
	energyKeys    = []string{"energy", "energy_kwh"}
	lightKeys     = []string{"light", "lux"}
	pressureKeys  = []string{"pressure"}
	co2Keys       = []string{"CO2", "co2"}
	occupancyKeys = []string{"Occupancy", "occupancy", "occupied"}
	widthKeys     = []string{"width"}
	lengthKeys    = []string{"length"}
	heightKeys    = []string{"height"}
)
