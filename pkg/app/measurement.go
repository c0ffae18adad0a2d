package app

import (
	"pulsein/pkg/mqtt"
	"pulsein/pkg/sampler"

	"github.com/womat/debug"
)

// service receives the periodic samples until the sampler is closed
// and sends them to the mqtt broker if they differ from the last sent sample.
func (app *App) service() {
	defer close(app.serviceDone)

	for smp := range app.sampler.C {
		if err := smp.Err(); err != nil {
			debug.DebugLog.Printf("sample: %v", err)
		}

		if app.validateMeasurement(smp) {
			app.sendMQTT(app.config.MQTT.Topic, smp)
		}
	}
}

// validateMeasurement checks the sample against the last sent sample.
// The sample must be sent if the mqtt interval is exceeded, the outcome has changed or the width has changed
// by at least DeltaWidth loops.
func (app *App) validateMeasurement(smp sampler.Sample) bool {
	app.mqttData.Lock()
	defer app.mqttData.Unlock()

	last := app.mqttData.sample
	deltaT := smp.TimeStamp.Sub(last.TimeStamp)

	var deltaW uint
	if smp.Width > last.Width {
		deltaW = smp.Width - last.Width
	} else {
		deltaW = last.Width - smp.Width
	}

	switch {
	case !app.mqttData.sent,
		deltaT >= app.config.MQTT.Interval,
		smp.Outcome != last.Outcome,
		app.config.MQTT.DeltaWidth > 0 && deltaW >= app.config.MQTT.DeltaWidth:
	default:
		return false
	}

	app.mqttData.sample = smp
	app.mqttData.sent = true
	return true
}

// sendMQTT send message struct to the mqtt broker.
func (app *App) sendMQTT(topic string, message interface{}) {
	debug.TraceLog.Printf("prepare mqtt message %v %v", topic, message)

	msg, err := mqtt.Marshal(topic, message)
	if err != nil {
		debug.ErrorLog.Printf("sendMQTT marshal: %v", err)
		return
	}

	app.mqtt.C <- msg
}
