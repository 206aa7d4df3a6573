package node

import (
	"encoding/json"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/stream"
)

// NatsWorker 订阅本节点 topic，按 Route 分发给注册的处理器
type NatsWorker struct {
	NatsCli   Client
	nodeID    string
	readChan  chan []byte
	writeChan chan *stream.Message
	handlers  LogicHandler
	closeChan chan struct{}
}

func NewNatsWorker() *NatsWorker {
	return &NatsWorker{
		readChan:  make(chan []byte, 1024),
		writeChan: make(chan *stream.Message, 1024),
		handlers:  make(LogicHandler),
		closeChan: make(chan struct{}),
	}
}

// Run 连接 nats 并订阅 topic（本节点 ID）
func (worker *NatsWorker) Run(natsURL, topic string) error {
	worker.nodeID = topic
	worker.NatsCli = NewNatsClient(topic, worker.readChan)
	if err := worker.NatsCli.Run(natsURL); err != nil {
		return err
	}

	go worker.readChanMessage()
	go worker.writeChanMessage()
	return nil
}

func (worker *NatsWorker) readChanMessage() {
	for {
		select {
		case rawMessage := <-worker.readChan:
			var message stream.Message
			if err := json.Unmarshal(rawMessage, &message); err != nil {
				log.Error("nats 消息解析失败, err:%v", err)
				continue
			}
			handler := worker.handlers[message.Route]
			if handler == nil {
				log.Warn("路由 %s 处理失败: %v", message.Route, ErrInvalidRoute)
				continue
			}
			result := handler(&message)
			if result == nil {
				continue
			}
			data, err := json.Marshal(result)
			if err != nil {
				log.Error("应答序列化失败, route:%s, err:%v", message.Route, err)
				continue
			}
			worker.writeChan <- &stream.Message{
				Type:        stream.Response,
				Source:      worker.nodeID,
				Destination: message.Source,
				Route:       message.Route,
				UserID:      message.UserID,
				ConnID:      message.ConnID,
				Data:        data,
			}
		case <-worker.closeChan:
			return
		}
	}
}

func (worker *NatsWorker) writeChanMessage() {
	for {
		select {
		case message := <-worker.writeChan:
			marshal, _ := json.Marshal(message)
			if err := worker.NatsCli.SendMessage(message.Destination, marshal); err != nil {
				log.Error("nats 发送错误, dest:%s, route:%s, err:%v", message.Destination, message.Route, err)
			}
		case <-worker.closeChan:
			return
		}
	}
}

// Push 主动推送给某个 connector 节点
func (worker *NatsWorker) Push(connectorID string, push *stream.PushMessage) error {
	data, err := json.Marshal(push)
	if err != nil {
		return err
	}
	msg := &stream.Message{
		Type:        stream.Push,
		Source:      worker.nodeID,
		Destination: connectorID,
		Route:       push.Route,
		Data:        data,
	}
	marshal, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return worker.NatsCli.SendMessage(connectorID, marshal)
}

// Publish 裸发布，供旁路事件（如分析埋点）使用
func (worker *NatsWorker) Publish(subject string, data []byte) error {
	return worker.NatsCli.SendMessage(subject, data)
}

func (worker *NatsWorker) RegisterHandlers(handlers LogicHandler) {
	worker.handlers = handlers
}

func (worker *NatsWorker) Close() {
	close(worker.closeChan)
	if worker.NatsCli != nil {
		worker.NatsCli.Close()
	}
}
