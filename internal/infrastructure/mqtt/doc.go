// Package mqtt provides MQTT client connectivity for plantbridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Tracked subscriptions that are restored after a reconnect
//   - Last Will and Testament (LWT) plus retained online/offline status
//   - Panic recovery around every message handler
//
// # Architecture
//
// BLE gateways (OpenMQTTGateway and similar) publish decoded sensor
// advertisements to the broker; the bridge subscribes to one filter and
// hands each message to the ingestion pipeline.
//
//	BLE sensors → Gateway → MQTT Broker → plantbridge → relational store
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) when the broker is not on localhost
//   - Credentials come from config or PLANTBRIDGE_MQTT_USERNAME/PASSWORD
//   - Payloads are untrusted input and are never executed or templated
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("home/+/BTtoMQTT/#", 1,
//	    func(topic string, payload []byte) error {
//	        pipeline.Handle(ctx, topic, payload)
//	        return nil
//	    })
package mqtt
