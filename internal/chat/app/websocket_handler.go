package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/internal/chat/repository"
	"chat_sync_service/pkg/logger"
	"chat_sync_service/pkg/middlewares"
)

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	userUC     UserUseCase
	convUC     ConversationUseCase
	messageUC  MessageUseCase
	presenceUC PresenceUseCase
	pubSub     *repository.RedisPubSub
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	userUC UserUseCase,
	convUC ConversationUseCase,
	messageUC MessageUseCase,
	presenceUC PresenceUseCase,
	pubSub *repository.RedisPubSub,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		userUC:     userUC,
		convUC:     convUC,
		messageUC:  messageUC,
		presenceUC: presenceUC,
		pubSub:     pubSub,
	}
}

// syncConn 序列化同一條連線上的寫入
// 讀取迴圈與 sub 推播 goroutine 會同時寫, websocket 不允許並發 WriteMessage
type syncConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (c *syncConn) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	externalID, _ := conn.Locals(middlewares.TokenExternalID).(string)
	user, err := h.userUC.GetUserByExternalID(ctx, externalID)
	if err != nil || user == nil {
		logger.Log.Error("websocket reject unknown user", zap.String("externalID", externalID))
		conn.Close()
		return
	}
	userID := user.UserID
	logger.Log.Info("websocket connected", zap.String("userID", userID))

	wc := &syncConn{Conn: conn}

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	// 連線存活期間維持在線心跳, 斷線時保證寫入離線
	session := NewPresenceSession(h.presenceUC, userID)
	if err := session.Start(ctxClose); err != nil {
		logger.Log.Errorf("presence start error:", err)
	}

	defer func() {
		ticker.Stop()
		session.Stop()
		logger.Log.Info("websocket close", zap.String("userID", userID))
		conn.Close()
		cancel()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Infof("Received PONG:", appData)
		return nil
	})

	//client發出ping
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	//啟用sub訂閱自己的訊息
	h.pubSub.Subscribe(ctxClose, repository.UserChannel(userID), func(event domain.Event) {
		h.sendResponse(wc, domain.WSResponse{
			Action:  string(domain.NotifyEvent),
			Success: true,
			Payload: map[string]interface{}{"event": event},
		})
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := wc.writeMessage(websocket.PingMessage, []byte("ping message")); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Errorf("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(ctx, wc, userID, externalID, session, mt, message)
	}
}

func (h *ChatWebsocketHandler) execWebsocketAction(ctx context.Context, conn *syncConn, userID, externalID string, session *PresenceSession, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, conn, userID, externalID, session, msg)

	//! close ping pong fiber會自動處理，故需使用setHandler處理
	default:
		h.sendError(conn, "unknown action")
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, conn *syncConn, userID, externalID string, session *PresenceSession, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err)
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch req.Action {
	//建立 1對1 聊天室 (已存在則回傳原聊天室)
	case string(domain.CreateDirect):
		convID, err := h.convUC.CreateOrGetDirect(ctx, userID, req.OtherUserID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["conversation_id"] = convID
		}

	//建立群組聊天室
	case string(domain.CreateGroup):
		convID, err := h.convUC.CreateOrGetGroup(ctx, userID, req.Members, req.GroupName)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["conversation_id"] = convID
		}

	//釘選/取消釘選
	case string(domain.TogglePin):
		pinned, err := h.convUC.TogglePin(ctx, req.ConversationID, userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["is_pinned"] = pinned
		}

	//側欄聊天室清單 (含未讀數)
	case string(domain.ListConversations):
		convs, err := h.convUC.ListForUser(ctx, userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["conversations"] = convs
		}

	//傳送資料
	//message都會寫入db,並推播給聊天室內的人
	case string(domain.SendMessage):
		msgID, err := h.messageUC.Send(ctx, req.ConversationID, userID, req.Body)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message_id"] = msgID
		}

	case string(domain.EditMessage):
		err := h.messageUC.Edit(ctx, req.MessageID, userID, req.Body)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	case string(domain.DeleteMessage):
		err := h.messageUC.SoftDelete(ctx, req.MessageID, userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	case string(domain.ListMessages):
		msgs, err := h.messageUC.ListMessages(ctx, req.ConversationID, userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["messages"] = msgs
		}

	//讀取訊息 將聊天室內未讀訊息全部改為已讀
	case string(domain.MarkRead):
		modified, err := h.messageUC.MarkRead(ctx, req.ConversationID, userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["marked"] = modified
		}

	case string(domain.ToggleReaction):
		present, err := h.messageUC.ToggleReaction(ctx, req.MessageID, userID, req.Emoji)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["reacted"] = present
		}

	//標記輸入中, 2秒沒再輸入會自動取消
	case string(domain.Typing):
		err := session.Typing(ctx, req.ConversationID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	case string(domain.ListTyping):
		users, err := h.presenceUC.ListTypingUsers(ctx, req.ConversationID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["users"] = users
		}

	//所有其他使用者 (含在線狀態)
	case string(domain.ListUsers):
		users, err := h.userUC.ListOtherUsers(ctx, externalID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["users"] = users
		}

	default:
		h.sendError(conn, "unknown message types ")
	}

	if resp.Error != "" {
		logger.Log.Error("websocket err ", zap.String("UserID", userID), zap.String("Action", req.Action), zap.String("err", resp.Error))
	}
	h.sendResponse(conn, resp)
}

// sendResponse - 發送 JSON 給前端
func (h *ChatWebsocketHandler) sendResponse(conn *syncConn, resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	if err := conn.writeMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

func (h *ChatWebsocketHandler) sendError(conn *syncConn, errorMsg string) {
	h.sendResponse(conn, domain.WSResponse{
		Action:  "error",
		Success: false,
		Payload: map[string]interface{}{
			"error": errorMsg,
		},
	})
}
